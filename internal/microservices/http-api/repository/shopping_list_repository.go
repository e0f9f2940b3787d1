package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ShoppingListRow is one (recipe, ingredient) group of a user's cart.
type ShoppingListRow struct {
	RecipeName      string
	IngredientName  string
	MeasurementUnit string
	Amount          int64
}

type ShoppingListRepository interface {
	// Rows sums amounts per (recipe name, ingredient name, unit) over the
	// user's carted recipes, ordered by recipe then ingredient name.
	Rows(ctx context.Context, userID string) ([]ShoppingListRow, error)
}

type shoppingListRepository struct {
	db *gorm.DB
}

func NewShoppingListRepository(db *gorm.DB) ShoppingListRepository {
	return &shoppingListRepository{db: db}
}

func (r *shoppingListRepository) Rows(ctx context.Context, userID string) ([]ShoppingListRow, error) {
	rows := []ShoppingListRow{}
	if err := r.db.WithContext(ctx).
		Table("shopping_carts").
		Select("recipes.name AS recipe_name, " +
			"ingredients.name AS ingredient_name, " +
			"ingredients.measurement_unit AS measurement_unit, " +
			"SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipes ON recipes.id = shopping_carts.recipe_id").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = recipes.id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("recipes.name, ingredients.name, ingredients.measurement_unit").
		Order("recipes.name, ingredients.name").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("shopping list: %w", err)
	}
	return rows, nil
}
