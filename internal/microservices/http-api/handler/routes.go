package handler

import (
	"foodgram/internal/microservices/http-api/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything mounted under /api.
type Handlers struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Catalog *CatalogHandler
	Recipes *RecipeHandler
}

// RegisterRoutes mounts the API on rg. validator authenticates bearer tokens.
func RegisterRoutes(rg *gin.RouterGroup, h Handlers, validator middleware.TokenValidator) {
	requireAuth := middleware.AuthMiddleware(validator)
	optionalAuth := middleware.OptionalAuth(validator)

	authGroup := rg.Group("/auth/token")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
	}

	users := rg.Group("/users")
	{
		users.POST("", h.Users.Register)
		users.GET("", optionalAuth, h.Users.List)
		users.GET("/me", requireAuth, h.Users.Me)
		users.POST("/set_password", requireAuth, h.Users.SetPassword)
		users.GET("/subscriptions", requireAuth, h.Users.Subscriptions)
		users.GET("/:id", optionalAuth, h.Users.Get)
		users.POST("/:id/subscribe", requireAuth, h.Users.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, h.Users.Unsubscribe)
	}

	rg.GET("/tags", h.Catalog.ListTags)
	rg.GET("/tags/:id", h.Catalog.GetTag)
	rg.GET("/ingredients", h.Catalog.ListIngredients)
	rg.GET("/ingredients/:id", h.Catalog.GetIngredient)

	recipes := rg.Group("/recipes")
	{
		recipes.GET("", optionalAuth, h.Recipes.List)
		recipes.POST("", requireAuth, h.Recipes.Create)
		recipes.GET("/download_shopping_cart", requireAuth, h.Recipes.DownloadShoppingCart)
		recipes.GET("/:id", optionalAuth, h.Recipes.Get)
		recipes.PATCH("/:id", requireAuth, h.Recipes.Update)
		recipes.DELETE("/:id", requireAuth, h.Recipes.Delete)
		recipes.POST("/:id/favorite", requireAuth, h.Recipes.AddFavorite)
		recipes.DELETE("/:id/favorite", requireAuth, h.Recipes.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", requireAuth, h.Recipes.AddToCart)
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.Recipes.RemoveFromCart)
	}
}
