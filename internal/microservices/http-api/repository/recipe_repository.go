package repository

import (
	"context"
	"fmt"

	"foodgram/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientAmount is one requested RecipeIngredient row.
type IngredientAmount struct {
	IngredientID int64
	Amount       int
}

// RecipePatch carries the fields of a partial update. Nil pointers are left
// untouched; a non-nil TagIDs or Ingredients slice replaces the whole set.
type RecipePatch struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string
	TagIDs      []int64
	Ingredients []IngredientAmount
}

// RecipeFilter narrows List. Empty fields do not filter.
type RecipeFilter struct {
	AuthorID    string
	TagSlugs    []string
	FavoritedBy string
	InCartOf    string
}

type RecipeRepository interface {
	// Create inserts the recipe, its tag links and its ingredient rows in one transaction.
	Create(ctx context.Context, recipe *models.Recipe, tagIDs []int64, items []IngredientAmount) error
	// Update applies patch in one transaction; any failure leaves the recipe as it was.
	Update(ctx context.Context, id int64, patch RecipePatch) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter, page, limit int) ([]models.Recipe, int64, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe, tagIDs []int64, items []IngredientAmount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := replaceTags(tx, recipe, tagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, items)
	})
}

func (r *recipeRepository) Update(ctx context.Context, id int64, patch RecipePatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			return fmt.Errorf("get recipe: %w", err)
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Text != nil {
			updates["text"] = *patch.Text
		}
		if patch.CookingTime != nil {
			updates["cooking_time"] = *patch.CookingTime
		}
		if patch.Image != nil {
			updates["image"] = *patch.Image
		}
		if len(updates) > 0 {
			if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
				return fmt.Errorf("update recipe: %w", err)
			}
		}

		if patch.Ingredients != nil {
			if err := replaceIngredients(tx, recipe.ID, patch.Ingredients); err != nil {
				return err
			}
		}
		if patch.TagIDs != nil {
			if err := replaceTags(tx, &recipe, patch.TagIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceTags swaps the recipe's tag links for exactly tagIDs.
func replaceTags(tx *gorm.DB, recipe *models.Recipe, tagIDs []int64) error {
	ids := distinctIDs(tagIDs)
	assoc := tx.Model(recipe).Association("Tags")
	if len(ids) == 0 {
		if err := assoc.Clear(); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		return nil
	}

	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return fmt.Errorf("find tags: %w", err)
	}
	if len(tags) != len(ids) {
		found := make([]int64, 0, len(tags))
		for _, t := range tags {
			found = append(found, t.ID)
		}
		return fmt.Errorf("%w: %v", ErrUnknownTag, missingIDs(ids, found))
	}

	if err := assoc.Replace(&tags); err != nil {
		return fmt.Errorf("replace tags: %w", err)
	}
	return nil
}

// replaceIngredients deletes every RecipeIngredient row of the recipe and
// bulk-inserts items. Repeated ingredient ids become separate rows.
func replaceIngredients(tx *gorm.DB, recipeID int64, items []IngredientAmount) error {
	want := make([]int64, 0, len(items))
	for _, it := range items {
		want = append(want, it.IngredientID)
	}
	want = distinctIDs(want)

	var found []int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", want).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("find ingredients: %w", err)
	}
	if missing := missingIDs(want, found); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrUnknownIngredient, missing)
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("delete recipe ingredients: %w", err)
	}

	if len(items) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, it := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: it.IngredientID,
			Amount:       it.Amount,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert recipe ingredients: %w", err)
	}
	return nil
}

// Delete removes the recipe and every row that hangs off it.
func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe := models.Recipe{ID: id}
		dependents := []interface{}{
			&models.RecipeIngredient{},
			&models.Favorite{},
			&models.ShoppingCart{},
		}
		for _, m := range dependents {
			if err := tx.Where("recipe_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("delete recipe dependents: %w", err)
			}
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}

		result := tx.Delete(&recipe)
		if result.Error != nil {
			return fmt.Errorf("delete recipe: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.withAggregate(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter, page, limit int) ([]models.Recipe, int64, error) {
	var list []models.Recipe
	var total int64

	if err := r.filtered(ctx, filter).Model(&models.Recipe{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	if err := r.withAggregate(r.filtered(ctx, filter)).
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC").
		Limit(limit).
		Offset(offset(page, limit)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	return list, total, nil
}

func (r *recipeRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Recipe, error) {
	var list []models.Recipe
	db := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date DESC").
		Order("id DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list author recipes: %w", err)
	}
	return list, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID string
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count author recipes: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

func (r *recipeRepository) withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name")
		}).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id")
		}).
		Preload("Ingredients.Ingredient")
}

func (r *recipeRepository) filtered(ctx context.Context, f RecipeFilter) *gorm.DB {
	db := r.db.WithContext(ctx)
	if f.AuthorID != "" {
		db = db.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		tagged := r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		db = db.Where("recipes.id IN (?)", tagged)
	}
	if f.FavoritedBy != "" {
		db = db.Where("recipes.id IN (?)",
			r.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", f.FavoritedBy))
	}
	if f.InCartOf != "" {
		db = db.Where("recipes.id IN (?)",
			r.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", f.InCartOf))
	}
	return db
}
