package service_test

import (
	"context"
	"testing"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/microservices/http-api/service"
	"foodgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Subscriptions(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	ctx := context.Background()
	recipes := repository.NewRecipeRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	svc := service.NewUserService(repository.NewUserRepository(db), subs, recipes)

	for _, name := range []string{"First", "Second", "Third"} {
		r := &models.Recipe{AuthorID: fx.Author.ID, Name: name, Text: "Cook.", CookingTime: 10, Image: "recipes/images/x.png"}
		require.NoError(t, recipes.Create(ctx, r, nil, []repository.IngredientAmount{{IngredientID: fx.Salt.ID, Amount: 1}}))
	}

	_, err := svc.Subscribe(ctx, fx.Reader.ID, fx.Reader.ID, 0)
	assert.ErrorIs(t, err, service.ErrConflict, "subscribing to yourself")

	_, err = svc.Subscribe(ctx, fx.Reader.ID, "00000000-0000-0000-0000-000000000000", 0)
	assert.ErrorIs(t, err, service.ErrNotFound)

	view, err := svc.Subscribe(ctx, fx.Reader.ID, fx.Author.ID, 2)
	require.NoError(t, err)
	assert.True(t, view.IsSubscribed)
	assert.Len(t, view.Recipes, 2)
	assert.EqualValues(t, 3, view.RecipesCount)

	_, err = svc.Subscribe(ctx, fx.Reader.ID, fx.Author.ID, 0)
	assert.ErrorIs(t, err, service.ErrConflict, "subscribing twice")

	list, total, err := svc.Subscriptions(ctx, fx.Reader.ID, 1, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "chef", list[0].User.Username)
	assert.Len(t, list[0].Recipes, 3)

	author, err := svc.Get(ctx, fx.Reader.ID, fx.Author.ID)
	require.NoError(t, err)
	assert.True(t, author.IsSubscribed)

	users, _, err := svc.List(ctx, fx.Reader.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].IsSubscribed, "chef")
	assert.False(t, users[1].IsSubscribed, "reader")

	require.NoError(t, svc.Unsubscribe(ctx, fx.Reader.ID, fx.Author.ID))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, fx.Reader.ID, fx.Author.ID), service.ErrNotFound)
}

func TestUserService_GetAnonymous(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewRecipeRepository(db),
	)

	view, err := svc.Get(context.Background(), "", fx.Author.ID)
	require.NoError(t, err)
	assert.Equal(t, "chef", view.User.Username)
	assert.False(t, view.IsSubscribed)
}
