package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodgram/internal/config"
	"foodgram/internal/microservices/http-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockTokenDenylist mocks the TokenDenylist interface
type MockTokenDenylist struct {
	mock.Mock
}

func (m *MockTokenDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	args := m.Called(ctx, jti, expiresAt)
	return args.Error(0)
}

func (m *MockTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func newTestAuthService() (AuthService, *MockUserRepository, *MockTokenDenylist) {
	users := new(MockUserRepository)
	denylist := new(MockTokenDenylist)
	cfg := &config.Config{JWTSecret: testSecret, AccessTokenTTL: 15 * time.Minute}
	return NewAuthService(users, denylist, cfg), users, denylist
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "test@example.com",
		Username:  "testuser",
		FirstName: "Test",
		LastName:  "User",
		Password:  "password123",
	}
}

func TestRegister_Success(t *testing.T) {
	authService, users, _ := newTestAuthService()
	ctx := context.Background()

	users.On("FindByUsername", ctx, "testuser").Return(nil, gorm.ErrRecordNotFound)
	users.On("FindByEmail", ctx, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := authService.Register(ctx, validRegistration())

	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	users.AssertExpectations(t)
}

func TestRegister_UsernameExists(t *testing.T) {
	authService, users, _ := newTestAuthService()
	ctx := context.Background()

	users.On("FindByUsername", ctx, "testuser").Return(&models.User{Username: "testuser"}, nil)

	user, err := authService.Register(ctx, validRegistration())

	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, user)
	users.AssertExpectations(t)
}

func TestRegister_EmailExists(t *testing.T) {
	authService, users, _ := newTestAuthService()
	ctx := context.Background()

	users.On("FindByUsername", ctx, "testuser").Return(nil, gorm.ErrRecordNotFound)
	users.On("FindByEmail", ctx, "test@example.com").Return(&models.User{Email: "test@example.com"}, nil)

	user, err := authService.Register(ctx, validRegistration())

	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, user)
	users.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		field  string
	}{
		{"reserved username", func(in *RegisterInput) { in.Username = "me" }, "username"},
		{"reserved username any case", func(in *RegisterInput) { in.Username = "Subscriptions" }, "username"},
		{"bad characters", func(in *RegisterInput) { in.Username = "no spaces" }, "username"},
		{"missing first name", func(in *RegisterInput) { in.FirstName = " " }, "first_name"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "password"},
		{"numeric password", func(in *RegisterInput) { in.Password = "1234567890" }, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService, users, _ := newTestAuthService()
			in := validRegistration()
			tt.mutate(&in)

			_, err := authService.Register(context.Background(), in)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
			users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	authService, users, denylist := newTestAuthService()
	ctx := context.Background()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: "user-id", Username: "testuser", Email: "test@example.com", Password: string(hashedPassword)}
	users.On("FindByEmail", ctx, "test@example.com").Return(user, nil)
	denylist.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, nil)

	token, err := authService.Login(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-id", claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.NotEmpty(t, claims.ID)
	users.AssertExpectations(t)
}

func TestLogin_InvalidPassword(t *testing.T) {
	authService, users, _ := newTestAuthService()
	ctx := context.Background()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", ctx, "test@example.com").Return(&models.User{ID: "user-id", Password: string(hashedPassword)}, nil)

	token, err := authService.Login(ctx, "test@example.com", "wrongpassword")

	assert.Equal(t, ErrInvalidCredentials, err)
	assert.Empty(t, token)
}

func TestLogin_UserNotFound(t *testing.T) {
	authService, users, _ := newTestAuthService()
	ctx := context.Background()

	users.On("FindByEmail", ctx, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	token, err := authService.Login(ctx, "nobody@example.com", "password123")

	assert.Equal(t, ErrInvalidCredentials, err)
	assert.Empty(t, token)
	users.AssertExpectations(t)
}

func signedToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateToken_Expired(t *testing.T) {
	authService, _, _ := newTestAuthService()

	tokenString := signedToken(t, testSecret, Claims{
		UserID: "user-id",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
	})

	claims, err := authService.ValidateToken(context.Background(), tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	authService, _, _ := newTestAuthService()

	tokenString := signedToken(t, "another-secret-another-secret-xx", Claims{
		UserID: "user-id",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := authService.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Revoked(t *testing.T) {
	authService, _, denylist := newTestAuthService()
	ctx := context.Background()

	tokenString := signedToken(t, testSecret, Claims{
		UserID: "user-id",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-revoked",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	denylist.On("IsRevoked", ctx, "jti-revoked").Return(true, nil)

	_, err := authService.ValidateToken(ctx, tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
	denylist.AssertExpectations(t)
}

func TestLogout_RevokesUntilExpiry(t *testing.T) {
	authService, _, denylist := newTestAuthService()
	ctx := context.Background()

	expiresAt := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	claims := &Claims{
		UserID: "user-id",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	denylist.On("Revoke", ctx, "jti-1", expiresAt).Return(nil)

	require.NoError(t, authService.Logout(ctx, claims))
	denylist.AssertExpectations(t)

	assert.ErrorIs(t, authService.Logout(ctx, nil), ErrInvalidToken)
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: "user-id", Password: string(hashedPassword)}

	t.Run("success", func(t *testing.T) {
		authService, users, _ := newTestAuthService()
		users.On("FindByID", ctx, "user-id").Return(user, nil)
		users.On("UpdatePassword", ctx, "user-id", mock.AnythingOfType("string")).Return(nil)

		require.NoError(t, authService.SetPassword(ctx, "user-id", "password123", "brand-new-pass"))
		users.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		authService, users, _ := newTestAuthService()
		users.On("FindByID", ctx, "user-id").Return(user, nil)

		err := authService.SetPassword(ctx, "user-id", "not-it", "brand-new-pass")
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "current_password", verr.Field)
		users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new password too short", func(t *testing.T) {
		authService, users, _ := newTestAuthService()
		users.On("FindByID", ctx, "user-id").Return(user, nil)

		err := authService.SetPassword(ctx, "user-id", "password123", "short")
		assert.ErrorIs(t, err, ErrValidation)
	})
}
