package models

import "time"

type Recipe struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID    string    `json:"author_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1"`
	Image       string    `json:"image" gorm:"not null"`
	PubDate     time.Time `json:"pub_date" gorm:"autoCreateTime;index"`

	// Associations
	Author      *User              `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Tags        []Tag              `json:"tags,omitempty" gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE;"`
	Ingredients []RecipeIngredient `json:"ingredients,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient is the through row carrying the per-recipe amount.
// Rows only change as part of their recipe's create, update or delete.
type RecipeIngredient struct {
	ID           int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipeID     int64 `json:"recipe_id" gorm:"not null;index"`
	IngredientID int64 `json:"ingredient_id" gorm:"not null;index"`
	Amount       int   `json:"amount" gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1"`

	Ingredient *Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE;"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
