package handler

import (
	"context"
	"net/http"
	"strconv"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	users    service.UserService
	auth     service.AuthService
	pageSize int
}

func NewUserHandler(users service.UserService, auth service.AuthService, pageSize int) *UserHandler {
	return &UserHandler{users: users, auth: auth, pageSize: pageSize}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.auth.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(*user, false))
}

func (h *UserHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	page, limit := pagination(c, h.pageSize)
	views, total, err := h.users.List(ctx, middleware.CurrentUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.UserResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, dto.FromUserView(v))
	}
	c.JSON(http.StatusOK, paginated(resp, page, limit, total))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	view, err := h.users.Get(ctx, middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUserView(*view))
}

func (h *UserHandler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	me := middleware.CurrentUserID(c)
	view, err := h.users.Get(ctx, me, me)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUserView(*view))
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req dto.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.auth.SetPassword(ctx, middleware.CurrentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	view, err := h.users.Subscribe(ctx, middleware.CurrentUserID(c), id, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromAuthorView(*view))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.users.Unsubscribe(ctx, middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	page, limit := pagination(c, h.pageSize)
	views, total, err := h.users.Subscriptions(ctx, middleware.CurrentUserID(c), page, limit, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.SubscriptionResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, dto.FromAuthorView(v))
	}
	c.JSON(http.StatusOK, paginated(resp, page, limit, total))
}

// recipesLimit reads ?recipes_limit=; 0 means no truncation.
func recipesLimit(c *gin.Context) int {
	if n, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && n > 0 {
		return n
	}
	return 0
}

// userParam reads the :id user path segment. Anything but a uuid cannot
// name a user.
func userParam(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return "", false
	}
	return id.String(), true
}
