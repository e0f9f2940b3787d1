package repository_test

import (
	"context"
	"testing"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Email: "cook@example.com", Username: "cook", FirstName: "Cook", LastName: "Book", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	byEmail, err := repo.FindByEmail(ctx, "cook@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byName, err := repo.FindByUsername(ctx, "cook")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, repository.IsNotFound(err))

	dup := &models.User{Email: "cook@example.com", Username: "other", FirstName: "A", LastName: "B", Password: "hash"}
	assert.True(t, repository.IsUniqueViolation(repo.Create(ctx, dup)))
}

func TestUserRepository_ListAndUpdatePassword(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	users, total, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 1)
	assert.Equal(t, "chef", users[0].Username)

	require.NoError(t, repo.UpdatePassword(ctx, fx.Reader.ID, "new-hash"))
	reader, err := repo.FindByID(ctx, fx.Reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reader.Password)

	assert.True(t, repository.IsNotFound(repo.UpdatePassword(ctx, "missing", "x")))
}

func TestSubscriptionRepository(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	repo := repository.NewSubscriptionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, fx.Reader.ID, fx.Author.ID))
	assert.True(t, repository.IsUniqueViolation(repo.Add(ctx, fx.Reader.ID, fx.Author.ID)))

	exists, err := repo.Exists(ctx, fx.Reader.ID, fx.Author.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	authors, total, err := repo.ListAuthors(ctx, fx.Reader.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, authors, 1)
	assert.Equal(t, fx.Author.ID, authors[0].ID)

	followed, err := repo.FollowedAmong(ctx, fx.Reader.ID, []string{fx.Author.ID, fx.Reader.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{fx.Author.ID: true}, followed)

	require.NoError(t, repo.Remove(ctx, fx.Reader.ID, fx.Author.ID))
	assert.True(t, repository.IsNotFound(repo.Remove(ctx, fx.Reader.ID, fx.Author.ID)))
}

func TestCatalogRepositories(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	ctx := context.Background()

	tags, err := repository.NewTagRepository(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)

	_, err = repository.NewTagRepository(db).GetByID(ctx, 999)
	assert.True(t, repository.IsNotFound(err))

	ingredients := repository.NewIngredientRepository(db)
	found, err := ingredients.Search(ctx, "sA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, fx.Salt.ID, found[0].ID)

	none, err := ingredients.Search(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := ingredients.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
