package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/microservices/http-api/service"
	"foodgram/internal/storage"
	"foodgram/internal/testutil"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// fakeImageStore keeps "saved" images in memory.
type fakeImageStore struct {
	saved   map[string]bool
	deleted []string
	seq     int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{saved: map[string]bool{}}
}

func (f *fakeImageStore) Save(dataURI string) (string, error) {
	if dataURI == "not-an-image" {
		return "", fmt.Errorf("%w: expected a data URI", storage.ErrInvalidImage)
	}
	f.seq++
	rel := fmt.Sprintf("recipes/images/%d.png", f.seq)
	f.saved[rel] = true
	return rel, nil
}

func (f *fakeImageStore) Delete(rel string) error {
	delete(f.saved, rel)
	f.deleted = append(f.deleted, rel)
	return nil
}

const pngURI = "data:image/png;base64,iVBORw0KGgo="

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type RecipeServiceSuite struct {
	suite.Suite
	db     *gorm.DB
	fx     testutil.Fixtures
	images *fakeImageStore
	svc    service.RecipeService
	ctx    context.Context
}

func TestRecipeServiceSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceSuite))
}

func (s *RecipeServiceSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.fx = testutil.Seed(s.T(), s.db)
	s.images = newFakeImageStore()
	s.ctx = context.Background()
	s.svc = service.NewRecipeService(
		repository.NewRecipeRepository(s.db),
		repository.NewFavoriteRepository(s.db),
		repository.NewShoppingCartRepository(s.db),
		repository.NewSubscriptionRepository(s.db),
		s.images,
		discardLogger(),
	)
}

func (s *RecipeServiceSuite) validInput() service.CreateRecipeInput {
	return service.CreateRecipeInput{
		Name:        "Pancakes",
		Text:        "Whisk and fry.",
		CookingTime: 15,
		Image:       pngURI,
		Tags:        []int64{s.fx.Tags[0].ID},
		Ingredients: []service.IngredientInput{
			{ID: s.fx.Flour.ID, Amount: 200},
			{ID: s.fx.Eggs.ID, Amount: 2},
		},
	}
}

func (s *RecipeServiceSuite) create() *service.RecipeView {
	view, err := s.svc.Create(s.ctx, s.fx.Author.ID, s.validInput())
	s.Require().NoError(err)
	return view
}

func (s *RecipeServiceSuite) rowCount(model interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Count(&n).Error)
	return n
}

func (s *RecipeServiceSuite) requireField(err error, field string) {
	var verr *service.ValidationError
	s.Require().True(errors.As(err, &verr), "expected a validation error, got %v", err)
	s.Equal(field, verr.Field)
}

func (s *RecipeServiceSuite) TestCreate_ReturnsAggregate() {
	view := s.create()

	r := view.Recipe
	s.Equal("Pancakes", r.Name)
	s.Equal(s.fx.Author.ID, r.AuthorID)
	s.Require().NotNil(r.Author)
	s.Require().Len(r.Ingredients, 2)
	s.Equal(s.fx.Flour.ID, r.Ingredients[0].IngredientID)
	s.Equal(200, r.Ingredients[0].Amount)
	s.Equal(s.fx.Eggs.ID, r.Ingredients[1].IngredientID)
	s.Equal(2, r.Ingredients[1].Amount)
	s.Require().Len(r.Tags, 1)
	s.True(s.images.saved[r.Image])
	s.False(view.IsFavorited)
	s.False(view.IsInShoppingCart)
}

func (s *RecipeServiceSuite) TestCreate_Validation() {
	tests := []struct {
		name   string
		mutate func(in *service.CreateRecipeInput)
		field  string
	}{
		{"zero cooking time", func(in *service.CreateRecipeInput) { in.CookingTime = 0 }, "cooking_time"},
		{"zero amount", func(in *service.CreateRecipeInput) { in.Ingredients[0].Amount = 0 }, "ingredients"},
		{"no ingredients", func(in *service.CreateRecipeInput) { in.Ingredients = nil }, "ingredients"},
		{"blank name", func(in *service.CreateRecipeInput) { in.Name = "  " }, "name"},
		{"missing image", func(in *service.CreateRecipeInput) { in.Image = "" }, "image"},
		{"bad image", func(in *service.CreateRecipeInput) { in.Image = "not-an-image" }, "image"},
		{"unknown ingredient", func(in *service.CreateRecipeInput) { in.Ingredients[1].ID = 9999 }, "ingredients"},
		{"unknown tag", func(in *service.CreateRecipeInput) { in.Tags = []int64{9999} }, "tags"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := s.validInput()
			tt.mutate(&in)

			_, err := s.svc.Create(s.ctx, s.fx.Author.ID, in)
			s.ErrorIs(err, service.ErrValidation)
			s.requireField(err, tt.field)
		})
	}
	s.Zero(s.rowCount(&models.Recipe{}))
	s.Zero(s.rowCount(&models.RecipeIngredient{}))
	s.Empty(s.images.saved, "images of failed creates are discarded")
}

func (s *RecipeServiceSuite) TestUpdate_ReplacesIngredients() {
	view := s.create()
	oldImage := view.Recipe.Image

	image := pngURI
	updated, err := s.svc.Update(s.ctx, s.fx.Author.ID, view.Recipe.ID, service.UpdateRecipeInput{
		Image:       &image,
		Ingredients: []service.IngredientInput{{ID: s.fx.Salt.ID, Amount: 3}},
	})
	s.Require().NoError(err)

	s.Require().Len(updated.Recipe.Ingredients, 1)
	s.Equal(s.fx.Salt.ID, updated.Recipe.Ingredients[0].IngredientID)
	s.Equal(3, updated.Recipe.Ingredients[0].Amount)
	s.Len(updated.Recipe.Tags, 1, "tags were not supplied")
	s.EqualValues(1, s.rowCount(&models.RecipeIngredient{}))

	s.NotEqual(oldImage, updated.Recipe.Image)
	s.Contains(s.images.deleted, oldImage)
}

func (s *RecipeServiceSuite) TestUpdate_Validation() {
	view := s.create()
	zero := 0

	_, err := s.svc.Update(s.ctx, s.fx.Author.ID, view.Recipe.ID, service.UpdateRecipeInput{CookingTime: &zero})
	s.requireField(err, "cooking_time")

	_, err = s.svc.Update(s.ctx, s.fx.Author.ID, view.Recipe.ID, service.UpdateRecipeInput{
		Ingredients: []service.IngredientInput{{ID: s.fx.Salt.ID, Amount: 0}},
	})
	s.requireField(err, "ingredients")

	_, err = s.svc.Update(s.ctx, s.fx.Author.ID, view.Recipe.ID, service.UpdateRecipeInput{
		Ingredients: []service.IngredientInput{},
	})
	s.requireField(err, "ingredients")

	s.EqualValues(2, s.rowCount(&models.RecipeIngredient{}))
}

func (s *RecipeServiceSuite) TestUpdate_UnknownTagLeavesRecipeUnchanged() {
	view := s.create()

	image := pngURI
	name := "Renamed"
	_, err := s.svc.Update(s.ctx, s.fx.Author.ID, view.Recipe.ID, service.UpdateRecipeInput{
		Name:        &name,
		Image:       &image,
		Ingredients: []service.IngredientInput{{ID: s.fx.Salt.ID, Amount: 1}},
		Tags:        []int64{424242},
	})
	s.requireField(err, "tags")

	after, err := s.svc.Get(s.ctx, s.fx.Author.ID, view.Recipe.ID)
	s.Require().NoError(err)
	s.Equal("Pancakes", after.Recipe.Name)
	s.Equal(view.Recipe.Image, after.Recipe.Image)
	s.Require().Len(after.Recipe.Ingredients, 2)
	s.Equal(s.fx.Flour.ID, after.Recipe.Ingredients[0].IngredientID)
	s.Require().Len(after.Recipe.Tags, 1)
	s.Equal(s.fx.Tags[0].ID, after.Recipe.Tags[0].ID)
	s.Len(s.images.saved, 1, "the new upload is discarded")
}

func (s *RecipeServiceSuite) TestUpdateAndDelete_OnlyAuthor() {
	view := s.create()
	name := "Stolen"

	_, err := s.svc.Update(s.ctx, s.fx.Reader.ID, view.Recipe.ID, service.UpdateRecipeInput{Name: &name})
	s.ErrorIs(err, service.ErrPermission)

	s.ErrorIs(s.svc.Delete(s.ctx, s.fx.Reader.ID, view.Recipe.ID), service.ErrPermission)
	s.EqualValues(1, s.rowCount(&models.Recipe{}))

	s.Require().NoError(s.svc.Delete(s.ctx, s.fx.Author.ID, view.Recipe.ID))
	s.Zero(s.rowCount(&models.Recipe{}))
	s.Zero(s.rowCount(&models.RecipeIngredient{}))
	s.Contains(s.images.deleted, view.Recipe.Image)

	_, err = s.svc.Get(s.ctx, "", view.Recipe.ID)
	s.ErrorIs(err, service.ErrNotFound)
}

func (s *RecipeServiceSuite) TestFavoriteTwiceIsConflict() {
	view := s.create()

	recipe, err := s.svc.AddFavorite(s.ctx, s.fx.Reader.ID, view.Recipe.ID)
	s.Require().NoError(err)
	s.Equal(view.Recipe.ID, recipe.ID)

	_, err = s.svc.AddFavorite(s.ctx, s.fx.Reader.ID, view.Recipe.ID)
	s.ErrorIs(err, service.ErrConflict)
	s.EqualValues(1, s.rowCount(&models.Favorite{}))

	got, err := s.svc.Get(s.ctx, s.fx.Reader.ID, view.Recipe.ID)
	s.Require().NoError(err)
	s.True(got.IsFavorited)
	s.False(got.IsInShoppingCart)

	s.Require().NoError(s.svc.RemoveFavorite(s.ctx, s.fx.Reader.ID, view.Recipe.ID))
	s.ErrorIs(s.svc.RemoveFavorite(s.ctx, s.fx.Reader.ID, view.Recipe.ID), service.ErrNotFound)
}

func (s *RecipeServiceSuite) TestCart() {
	view := s.create()

	_, err := s.svc.AddToCart(s.ctx, s.fx.Reader.ID, 9999)
	s.ErrorIs(err, service.ErrNotFound)

	_, err = s.svc.AddToCart(s.ctx, s.fx.Reader.ID, view.Recipe.ID)
	s.Require().NoError(err)
	_, err = s.svc.AddToCart(s.ctx, s.fx.Reader.ID, view.Recipe.ID)
	s.ErrorIs(err, service.ErrConflict)

	list, total, err := s.svc.List(s.ctx, s.fx.Reader.ID, service.RecipeFilter{IsInShoppingCart: true}, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Require().Len(list, 1)
	s.True(list[0].IsInShoppingCart)

	anon, total, err := s.svc.List(s.ctx, "", service.RecipeFilter{IsInShoppingCart: true}, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(1, total, "the cart filter needs a caller")
	s.False(anon[0].IsInShoppingCart)

	s.Require().NoError(s.svc.RemoveFromCart(s.ctx, s.fx.Reader.ID, view.Recipe.ID))
	s.ErrorIs(s.svc.RemoveFromCart(s.ctx, s.fx.Reader.ID, view.Recipe.ID), service.ErrNotFound)
}

func (s *RecipeServiceSuite) TestAuthorFollowedFlag() {
	view := s.create()
	s.Require().NoError(repository.NewSubscriptionRepository(s.db).Add(s.ctx, s.fx.Reader.ID, s.fx.Author.ID))

	got, err := s.svc.Get(s.ctx, s.fx.Reader.ID, view.Recipe.ID)
	s.Require().NoError(err)
	s.True(got.AuthorFollowed)

	anon, err := s.svc.Get(s.ctx, "", view.Recipe.ID)
	s.Require().NoError(err)
	s.False(anon.AuthorFollowed)
}
