package repository

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type IngredientRepository interface {
	// Search returns ingredients whose name starts with prefix, case-insensitively.
	// An empty prefix lists the whole catalog.
	Search(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	var list []models.Ingredient
	db := r.db.WithContext(ctx)

	if prefix = strings.TrimSpace(prefix); prefix != "" {
		// escape LIKE wildcards so "50%" matches literally
		escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(prefix))
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escaped+"%")
	}

	if err := db.Order("name").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	return list, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}
