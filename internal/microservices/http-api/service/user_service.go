package service

import (
	"context"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
)

// UserView is a user as seen by the caller.
type UserView struct {
	User         models.User
	IsSubscribed bool
}

// AuthorView is a followed author with a preview of their recipes.
type AuthorView struct {
	UserView
	Recipes      []models.Recipe
	RecipesCount int64
}

type UserService interface {
	List(ctx context.Context, callerID string, page, limit int) ([]UserView, int64, error)
	Get(ctx context.Context, callerID, userID string) (*UserView, error)
	Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*AuthorView, error)
	Unsubscribe(ctx context.Context, userID, authorID string) error
	Subscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]AuthorView, int64, error)
}

type userService struct {
	users   repository.UserRepository
	subs    repository.SubscriptionRepository
	recipes repository.RecipeRepository
}

func NewUserService(users repository.UserRepository, subs repository.SubscriptionRepository, recipes repository.RecipeRepository) UserService {
	return &userService{users: users, subs: subs, recipes: recipes}
}

func (s *userService) List(ctx context.Context, callerID string, page, limit int) ([]UserView, int64, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	followed, err := s.subs.FollowedAmong(ctx, callerID, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, UserView{User: u, IsSubscribed: followed[u.ID]})
	}
	return views, total, nil
}

// Get returns userID's profile; callerID may be empty for anonymous requests.
func (s *userService) Get(ctx context.Context, callerID, userID string) (*UserView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}

	view := &UserView{User: *user}
	if callerID != "" && callerID != userID {
		if view.IsSubscribed, err = s.subs.Exists(ctx, callerID, userID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// Subscribe makes userID follow authorID. Following yourself and following
// twice are both conflicts.
func (s *userService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*AuthorView, error) {
	if userID == authorID {
		return nil, conflict("cannot subscribe to yourself")
	}

	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, translate(err, "user")
	}

	exists, err := s.subs.Exists(ctx, userID, authorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("already subscribed to this author")
	}

	if err := s.subs.Add(ctx, userID, authorID); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("already subscribed to this author")
		}
		return nil, err
	}

	views, err := s.authorViews(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.users.FindByID(ctx, authorID); err != nil {
		return translate(err, "user")
	}
	return translate(s.subs.Remove(ctx, userID, authorID), "subscription")
}

func (s *userService) Subscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]AuthorView, int64, error) {
	authors, total, err := s.subs.ListAuthors(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.authorViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// authorViews decorates authors the caller already follows.
func (s *userService) authorViews(ctx context.Context, authors []models.User, recipesLimit int) ([]AuthorView, error) {
	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]AuthorView, 0, len(authors))
	for _, a := range authors {
		recipes, err := s.recipes.ListByAuthor(ctx, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		views = append(views, AuthorView{
			UserView:     UserView{User: a, IsSubscribed: true},
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		})
	}
	return views, nil
}
