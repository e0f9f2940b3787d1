package service

import (
	"context"
	"log/slog"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
)

// TagCache is a best-effort store for the tag list.
type TagCache interface {
	Get(ctx context.Context) ([]models.Tag, bool, error)
	Set(ctx context.Context, tags []models.Tag) error
}

type CatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	SearchIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error)
}

type catalogService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	cache       TagCache
	logger      *slog.Logger
}

func NewCatalogService(tags repository.TagRepository, ingredients repository.IngredientRepository, cache TagCache, logger *slog.Logger) CatalogService {
	return &catalogService{tags: tags, ingredients: ingredients, cache: cache, logger: logger}
}

// ListTags serves from the cache when it can; cache failures only get logged.
func (s *catalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	if tags, ok, err := s.cache.Get(ctx); err != nil {
		s.logger.Warn("tag cache read failed", "error", err)
	} else if ok {
		return tags, nil
	}

	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, tags); err != nil {
		s.logger.Warn("tag cache write failed", "error", err)
	}
	return tags, nil
}

func (s *catalogService) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	return tag, translate(err, "tag")
}

func (s *catalogService) SearchIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	return s.ingredients.Search(ctx, namePrefix)
}

func (s *catalogService) GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	ingredient, err := s.ingredients.GetByID(ctx, id)
	return ingredient, translate(err, "ingredient")
}
