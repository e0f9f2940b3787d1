package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RecipeListRepository stores a per-user set of recipes. Favorites and the
// shopping cart share the same (user_id, recipe_id) shape.
type RecipeListRepository interface {
	Add(ctx context.Context, userID string, recipeID int64) error
	Remove(ctx context.Context, userID string, recipeID int64) error
	Exists(ctx context.Context, userID string, recipeID int64) (bool, error)
	// ContainedAmong returns which of recipeIDs are in the user's list.
	ContainedAmong(ctx context.Context, userID string, recipeIDs []int64) (map[int64]bool, error)
}

type recipeListRepository struct {
	db    *gorm.DB
	table string
}

func NewFavoriteRepository(db *gorm.DB) RecipeListRepository {
	return &recipeListRepository{db: db, table: "favorites"}
}

func NewShoppingCartRepository(db *gorm.DB) RecipeListRepository {
	return &recipeListRepository{db: db, table: "shopping_carts"}
}

func (r *recipeListRepository) Add(ctx context.Context, userID string, recipeID int64) error {
	row := map[string]interface{}{
		"user_id":    userID,
		"recipe_id":  recipeID,
		"created_at": time.Now(),
	}
	if err := r.db.WithContext(ctx).Table(r.table).Create(row).Error; err != nil {
		return fmt.Errorf("add to %s: %w", r.table, err)
	}
	return nil
}

func (r *recipeListRepository) Remove(ctx context.Context, userID string, recipeID int64) error {
	result := r.db.WithContext(ctx).
		Exec("DELETE FROM "+r.table+" WHERE user_id = ? AND recipe_id = ?", userID, recipeID)
	if result.Error != nil {
		return fmt.Errorf("remove from %s: %w", r.table, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeListRepository) Exists(ctx context.Context, userID string, recipeID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table(r.table).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeListRepository) ContainedAmong(ctx context.Context, userID string, recipeIDs []int64) (map[int64]bool, error) {
	contained := make(map[int64]bool, len(recipeIDs))
	if userID == "" || len(recipeIDs) == 0 {
		return contained, nil
	}

	var ids []int64
	if err := r.db.WithContext(ctx).
		Table(r.table).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("%s lookup: %w", r.table, err)
	}
	for _, id := range ids {
		contained[id] = true
	}
	return contained, nil
}
