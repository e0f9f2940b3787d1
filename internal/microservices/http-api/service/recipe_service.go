package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/storage"
)

const maxRecipeNameLength = 200

// ImageStore persists uploaded recipe images.
type ImageStore interface {
	Save(dataURI string) (string, error)
	Delete(rel string) error
}

type IngredientInput struct {
	ID     int64
	Amount int
}

type CreateRecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	Tags        []int64
	Ingredients []IngredientInput
}

// UpdateRecipeInput changes only what is set. A non-nil Tags or Ingredients
// replaces the whole set; an empty non-nil Tags clears it.
type UpdateRecipeInput struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string
	Tags        []int64
	Ingredients []IngredientInput
}

// RecipeView is a recipe plus the caller-relative flags.
type RecipeView struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorFollowed   bool
}

type RecipeFilter struct {
	AuthorID         string
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
}

type RecipeService interface {
	Create(ctx context.Context, authorID string, in CreateRecipeInput) (*RecipeView, error)
	Update(ctx context.Context, callerID string, recipeID int64, in UpdateRecipeInput) (*RecipeView, error)
	Delete(ctx context.Context, callerID string, recipeID int64) error
	Get(ctx context.Context, callerID string, recipeID int64) (*RecipeView, error)
	List(ctx context.Context, callerID string, filter RecipeFilter, page, limit int) ([]RecipeView, int64, error)

	AddFavorite(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error)
	RemoveFavorite(ctx context.Context, userID string, recipeID int64) error
	AddToCart(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error)
	RemoveFromCart(ctx context.Context, userID string, recipeID int64) error
}

type recipeService struct {
	recipes   repository.RecipeRepository
	favorites repository.RecipeListRepository
	cart      repository.RecipeListRepository
	subs      repository.SubscriptionRepository
	images    ImageStore
	logger    *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	favorites repository.RecipeListRepository,
	cart repository.RecipeListRepository,
	subs repository.SubscriptionRepository,
	images ImageStore,
	logger *slog.Logger,
) RecipeService {
	return &recipeService{
		recipes:   recipes,
		favorites: favorites,
		cart:      cart,
		subs:      subs,
		images:    images,
		logger:    logger,
	}
}

func (s *recipeService) Create(ctx context.Context, authorID string, in CreateRecipeInput) (*RecipeView, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if in.Text == "" {
		return nil, invalid("text", "this field is required")
	}
	if err := validateCookingTime(in.CookingTime); err != nil {
		return nil, err
	}
	if in.Image == "" {
		return nil, invalid("image", "this field is required")
	}
	if err := validateTags(in.Tags); err != nil {
		return nil, err
	}
	items, err := ingredientAmounts(in.Ingredients)
	if err != nil {
		return nil, err
	}

	image, err := s.saveImage(in.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       image,
	}
	if err := s.recipes.Create(ctx, recipe, in.Tags, items); err != nil {
		s.discardImage(image)
		return nil, writerError(err)
	}

	s.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	return s.Get(ctx, authorID, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, callerID string, recipeID int64, in UpdateRecipeInput) (*RecipeView, error) {
	current, err := s.authored(ctx, callerID, recipeID)
	if err != nil {
		return nil, err
	}

	patch := repository.RecipePatch{CookingTime: in.CookingTime, TagIDs: in.Tags}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, invalid("text", "this field may not be blank")
		}
		patch.Text = &text
	}
	if in.CookingTime != nil {
		if err := validateCookingTime(*in.CookingTime); err != nil {
			return nil, err
		}
	}
	if in.Tags != nil {
		if err := validateTags(in.Tags); err != nil {
			return nil, err
		}
	}
	if in.Ingredients != nil {
		if patch.Ingredients, err = ingredientAmounts(in.Ingredients); err != nil {
			return nil, err
		}
	}

	var newImage string
	if in.Image != nil {
		if newImage, err = s.saveImage(*in.Image); err != nil {
			return nil, err
		}
		patch.Image = &newImage
	}

	if err := s.recipes.Update(ctx, recipeID, patch); err != nil {
		if newImage != "" {
			s.discardImage(newImage)
		}
		return nil, writerError(err)
	}
	// the old file goes only once the new path is committed
	if newImage != "" && current.Image != "" {
		s.discardImage(current.Image)
	}

	s.logger.Info("recipe updated", "recipe_id", recipeID)
	return s.Get(ctx, callerID, recipeID)
}

func (s *recipeService) Delete(ctx context.Context, callerID string, recipeID int64) error {
	recipe, err := s.authored(ctx, callerID, recipeID)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		return translate(err, "recipe")
	}
	if recipe.Image != "" {
		s.discardImage(recipe.Image)
	}
	s.logger.Info("recipe deleted", "recipe_id", recipeID)
	return nil
}

func (s *recipeService) Get(ctx context.Context, callerID string, recipeID int64) (*RecipeView, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, translate(err, "recipe")
	}
	views, err := s.decorate(ctx, callerID, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns recipes newest first. The favorite and cart filters need a
// caller and are ignored for anonymous requests.
func (s *recipeService) List(ctx context.Context, callerID string, filter RecipeFilter, page, limit int) ([]RecipeView, int64, error) {
	f := repository.RecipeFilter{AuthorID: filter.AuthorID, TagSlugs: filter.Tags}
	if callerID != "" {
		if filter.IsFavorited {
			f.FavoritedBy = callerID
		}
		if filter.IsInShoppingCart {
			f.InCartOf = callerID
		}
	}

	recipes, total, err := s.recipes.List(ctx, f, page, limit)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.decorate(ctx, callerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *recipeService) AddFavorite(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error) {
	return s.addTo(ctx, s.favorites, "favorites", userID, recipeID)
}

func (s *recipeService) RemoveFavorite(ctx context.Context, userID string, recipeID int64) error {
	return s.removeFrom(ctx, s.favorites, "favorite", userID, recipeID)
}

func (s *recipeService) AddToCart(ctx context.Context, userID string, recipeID int64) (*models.Recipe, error) {
	return s.addTo(ctx, s.cart, "shopping cart", userID, recipeID)
}

func (s *recipeService) RemoveFromCart(ctx context.Context, userID string, recipeID int64) error {
	return s.removeFrom(ctx, s.cart, "shopping cart entry", userID, recipeID)
}

func (s *recipeService) addTo(ctx context.Context, list repository.RecipeListRepository, name, userID string, recipeID int64) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, translate(err, "recipe")
	}

	exists, err := list.Exists(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("recipe is already in " + name)
	}
	if err := list.Add(ctx, userID, recipeID); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("recipe is already in " + name)
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) removeFrom(ctx context.Context, list repository.RecipeListRepository, what, userID string, recipeID int64) error {
	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		return translate(err, "recipe")
	}
	return translate(list.Remove(ctx, userID, recipeID), what)
}

// authored loads the recipe and checks that callerID wrote it.
func (s *recipeService) authored(ctx context.Context, callerID string, recipeID int64) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, translate(err, "recipe")
	}
	if recipe.AuthorID != callerID {
		return nil, ErrPermission
	}
	return recipe, nil
}

func (s *recipeService) decorate(ctx context.Context, callerID string, recipes []models.Recipe) ([]RecipeView, error) {
	ids := make([]int64, 0, len(recipes))
	authors := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		authors = append(authors, r.AuthorID)
	}

	favorited, err := s.favorites.ContainedAmong(ctx, callerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := s.cart.ContainedAmong(ctx, callerID, ids)
	if err != nil {
		return nil, err
	}
	followed := map[string]bool{}
	if callerID != "" {
		if followed, err = s.subs.FollowedAmong(ctx, callerID, authors); err != nil {
			return nil, err
		}
	}

	views := make([]RecipeView, 0, len(recipes))
	for _, r := range recipes {
		views = append(views, RecipeView{
			Recipe:           r,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			AuthorFollowed:   followed[r.AuthorID],
		})
	}
	return views, nil
}

func (s *recipeService) saveImage(dataURI string) (string, error) {
	rel, err := s.images.Save(dataURI)
	if errors.Is(err, storage.ErrInvalidImage) {
		return "", invalid("image", "%s", strings.TrimPrefix(err.Error(), storage.ErrInvalidImage.Error()+": "))
	}
	return rel, err
}

func (s *recipeService) discardImage(rel string) {
	if err := s.images.Delete(rel); err != nil {
		s.logger.Warn("failed to delete recipe image", "path", rel, "error", err)
	}
}

// writerError maps unknown-reference failures from the Writer onto the
// field that referenced them.
func writerError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUnknownTag):
		return invalid("tags", "%s", err.Error())
	case errors.Is(err, repository.ErrUnknownIngredient):
		return invalid("ingredients", "%s", err.Error())
	default:
		return translate(err, "recipe")
	}
}

func validateName(name string) error {
	if name == "" {
		return invalid("name", "this field is required")
	}
	if len([]rune(name)) > maxRecipeNameLength {
		return invalid("name", "must be at most %d characters", maxRecipeNameLength)
	}
	return nil
}

func validateCookingTime(minutes int) error {
	if minutes < 1 {
		return invalid("cooking_time", "must be at least 1 minute")
	}
	return nil
}

func validateTags(ids []int64) error {
	for _, id := range ids {
		if id < 1 {
			return invalid("tags", "invalid tag id %d", id)
		}
	}
	return nil
}

func ingredientAmounts(in []IngredientInput) ([]repository.IngredientAmount, error) {
	if len(in) == 0 {
		return nil, invalid("ingredients", "at least one ingredient is required")
	}
	items := make([]repository.IngredientAmount, 0, len(in))
	for _, it := range in {
		if it.ID < 1 {
			return nil, invalid("ingredients", "invalid ingredient id %d", it.ID)
		}
		if it.Amount < 1 {
			return nil, invalid("ingredients", "amount must be at least 1")
		}
		items = append(items, repository.IngredientAmount{IngredientID: it.ID, Amount: it.Amount})
	}
	return items, nil
}
