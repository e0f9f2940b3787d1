package dto

import (
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"
)

type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// SubscriptionResponse is a followed author with a preview of their recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

func FromUser(u models.User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func FromUserView(v service.UserView) UserResponse {
	return FromUser(v.User, v.IsSubscribed)
}

func FromAuthorView(v service.AuthorView) SubscriptionResponse {
	recipes := make([]RecipeShortResponse, 0, len(v.Recipes))
	for _, r := range v.Recipes {
		recipes = append(recipes, FromRecipeShort(r))
	}
	return SubscriptionResponse{
		UserResponse: FromUserView(v.UserView),
		Recipes:      recipes,
		RecipesCount: v.RecipesCount,
	}
}
