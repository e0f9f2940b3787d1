package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"foodgram/internal/config"
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Usernames that would shadow /api/users/<name> routes.
var reservedUsernames = map[string]bool{
	"me":            true,
	"set_password":  true,
	"subscriptions": true,
	"subscribe":     true,
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Claims is the payload of an access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenDenylist tracks logged-out tokens by jti.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *Claims) error
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
	SetPassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type authService struct {
	userRepo       repository.UserRepository
	denylist       TokenDenylist
	jwtSecret      string
	accessTokenTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, denylist TokenDenylist, cfg *config.Config) AuthService {
	return &authService{
		userRepo:       userRepo,
		denylist:       denylist,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

// Register creates an account after checking the username rules and uniqueness.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	switch {
	case in.Email == "":
		return nil, invalid("email", "this field is required")
	case in.Username == "":
		return nil, invalid("username", "this field is required")
	case reservedUsernames[strings.ToLower(in.Username)]:
		return nil, invalid("username", "username %q is reserved", in.Username)
	case !usernamePattern.MatchString(in.Username):
		return nil, invalid("username", "only letters, digits and @/./+/-/_ are allowed")
	case in.FirstName == "":
		return nil, invalid("first_name", "this field is required")
	case in.LastName == "":
		return nil, invalid("last_name", "this field is required")
	}
	if err := validatePassword("password", in.Password); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(ctx, in.Username); err == nil {
		return nil, conflict("username already in use")
	} else if !repository.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return nil, conflict("email already in use")
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

// Login authenticates by email and password and issues an access token.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !repository.IsNotFound(err) {
			return "", err
		}
		auth.VerifyUnknownUser(password)
		return "", ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// Logout revokes the token the claims came from.
func (s *authService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}
	expiresAt := time.Now().Add(s.accessTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.denylist.Revoke(ctx, claims.ID, expiresAt)
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
	}
	return claims, nil
}

// SetPassword replaces the password after verifying the current one.
func (s *authService) SetPassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return translate(err, "user")
	}
	if err := auth.VerifyPassword(user.Password, currentPassword); err != nil {
		return invalid("current_password", "current password is incorrect")
	}
	if err := validatePassword("new_password", newPassword); err != nil {
		return err
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return translate(s.userRepo.UpdatePassword(ctx, userID, hashed), "user")
}

func validatePassword(field, password string) error {
	if err := auth.CheckStrength(password); err != nil {
		return invalid(field, "%v", err)
	}
	return nil
}
