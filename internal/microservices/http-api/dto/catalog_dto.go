package dto

import "foodgram/internal/microservices/http-api/models"

type TagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func FromTag(t models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func FromTags(tags []models.Tag) []TagResponse {
	resp := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, FromTag(t))
	}
	return resp
}

func FromIngredient(i models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}
