package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecipeHandler struct {
	recipes      service.RecipeService
	shoppingList service.ShoppingListService
	grouping     service.GroupingPolicy
	pageSize     int
}

func NewRecipeHandler(recipes service.RecipeService, shoppingList service.ShoppingListService, grouping service.GroupingPolicy, pageSize int) *RecipeHandler {
	return &RecipeHandler{
		recipes:      recipes,
		shoppingList: shoppingList,
		grouping:     grouping,
		pageSize:     pageSize,
	}
}

// List handles GET /api/recipes with the author, tags, is_favorited and
// is_in_shopping_cart filters.
func (h *RecipeHandler) List(c *gin.Context) {
	filter := service.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      c.Query("is_favorited") == "1",
		IsInShoppingCart: c.Query("is_in_shopping_cart") == "1",
	}
	if author := strings.TrimSpace(c.Query("author")); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id", "field": "author"})
			return
		}
		filter.AuthorID = id.String()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	page, limit := pagination(c, h.pageSize)
	views, total, err := h.recipes.List(ctx, middleware.CurrentUserID(c), filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.RecipeResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, dto.FromRecipeView(v))
	}
	c.JSON(http.StatusOK, paginated(resp, page, limit, total))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	view, err := h.recipes.Get(ctx, middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecipeView(*view))
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var in dto.CreateRecipeDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	view, err := h.recipes.Create(ctx, middleware.CurrentUserID(c), in.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRecipeView(*view))
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in dto.UpdateRecipeDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	view, err := h.recipes.Update(ctx, middleware.CurrentUserID(c), id, in.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecipeView(*view))
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.recipes.Delete(ctx, middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addToList(c, h.recipes.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeFromList(c, h.recipes.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addToList(c, h.recipes.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeFromList(c, h.recipes.RemoveFromCart)
}

func (h *RecipeHandler) addToList(c *gin.Context, add func(context.Context, string, int64) (*models.Recipe, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	recipe, err := add(ctx, middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRecipeShort(*recipe))
}

func (h *RecipeHandler) removeFromList(c *gin.Context, remove func(context.Context, string, int64) error) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := remove(ctx, middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart handles GET /api/recipes/download_shopping_cart.
// ?format=tsv switches to tab separated output and ?group_by= overrides the
// configured grouping policy.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	policy := h.grouping
	if g := c.Query("group_by"); g != "" {
		parsed, err := service.ParseGroupingPolicy(g)
		if err != nil {
			respondError(c, err)
			return
		}
		policy = parsed
	}

	delim, contentType, filename := ',', "text/csv; charset=utf-8", "shopping_list.csv"
	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "csv":
	case "tsv":
		delim, contentType, filename = '\t', "text/tab-separated-values; charset=utf-8", "shopping_list.tsv"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or tsv", "field": "format"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := h.shoppingList.Export(ctx, &buf, middleware.CurrentUserID(c), policy, delim); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
