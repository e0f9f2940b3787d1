package handler

import (
	"context"
	"net/http"
	"strings"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the read-only tag and ingredient lists.
type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	tags, err := h.svc.ListTags(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTags(tags))
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	tag, err := h.svc.GetTag(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTag(*tag))
}

// ListIngredients handles GET /api/ingredients?name=<prefix>
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := h.svc.SearchIngredients(ctx, strings.TrimSpace(c.Query("name")))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.IngredientResponse, 0, len(list))
	for _, i := range list {
		resp = append(resp, dto.FromIngredient(i))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ingredient, err := h.svc.GetIngredient(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIngredient(*ingredient))
}
