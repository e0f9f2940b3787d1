package dto

import (
	"path"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"
)

// MediaURL is where stored files are served from.
const MediaURL = "/media/"

// IngredientAmountDTO is one entry of a recipe's ingredient list.
type IngredientAmountDTO struct {
	ID     int64 `json:"id" binding:"required,min=1"`
	Amount int   `json:"amount" binding:"required,min=1"`
}

// CreateRecipeDTO used for POST /api/recipes
type CreateRecipeDTO struct {
	Ingredients []IngredientAmountDTO `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []int64               `json:"tags"`
	Image       string                `json:"image" binding:"required"`
	Name        string                `json:"name" binding:"required,max=200"`
	Text        string                `json:"text" binding:"required"`
	CookingTime int                   `json:"cooking_time" binding:"required,min=1"`
}

// UpdateRecipeDTO used for PATCH /api/recipes/:id. Absent fields are left
// alone; a present tags or ingredients list replaces the stored one.
type UpdateRecipeDTO struct {
	Ingredients []IngredientAmountDTO `json:"ingredients" binding:"omitempty,dive"`
	Tags        []int64               `json:"tags"`
	Image       *string               `json:"image"`
	Name        *string               `json:"name"`
	Text        *string               `json:"text"`
	CookingTime *int                  `json:"cooking_time"`
}

type RecipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeShortResponse is the compact shape used by favorites, the cart and
// subscriptions.
type RecipeShortResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Converters
func ingredientItems(items []IngredientAmountDTO) []service.IngredientInput {
	if items == nil {
		return nil
	}
	out := make([]service.IngredientInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.IngredientInput{ID: it.ID, Amount: it.Amount})
	}
	return out
}

func (d CreateRecipeDTO) ToInput() service.CreateRecipeInput {
	return service.CreateRecipeInput{
		Name:        d.Name,
		Text:        d.Text,
		CookingTime: d.CookingTime,
		Image:       d.Image,
		Tags:        d.Tags,
		Ingredients: ingredientItems(d.Ingredients),
	}
}

func (d UpdateRecipeDTO) ToInput() service.UpdateRecipeInput {
	return service.UpdateRecipeInput{
		Name:        d.Name,
		Text:        d.Text,
		CookingTime: d.CookingTime,
		Image:       d.Image,
		Tags:        d.Tags,
		Ingredients: ingredientItems(d.Ingredients),
	}
}

func ImageURL(rel string) string {
	if rel == "" {
		return ""
	}
	return MediaURL + path.Clean(rel)
}

func FromRecipeView(v service.RecipeView) RecipeResponse {
	r := v.Recipe

	ingredients := make([]RecipeIngredientResponse, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		item := RecipeIngredientResponse{ID: ri.IngredientID, Amount: ri.Amount}
		if ri.Ingredient != nil {
			item.Name = ri.Ingredient.Name
			item.MeasurementUnit = ri.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, item)
	}

	resp := RecipeResponse{
		ID:               r.ID,
		Tags:             FromTags(r.Tags),
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             r.Name,
		Image:            ImageURL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
	if r.Author != nil {
		resp.Author = FromUser(*r.Author, v.AuthorFollowed)
	} else {
		resp.Author = UserResponse{ID: r.AuthorID}
	}
	return resp
}

func FromRecipeShort(r models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       ImageURL(r.Image),
		CookingTime: r.CookingTime,
	}
}
