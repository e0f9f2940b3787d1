package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"foodgram/internal/microservices/http-api/repository"
)

// GroupingPolicy decides which rows of a shopping list get merged.
type GroupingPolicy string

const (
	// PerRecipe keeps one row per (recipe, ingredient, unit).
	PerRecipe GroupingPolicy = "per_recipe"
	// PerIngredient merges rows across recipes by (ingredient, unit).
	PerIngredient GroupingPolicy = "per_ingredient"
)

var shoppingListHeader = []string{"recipe", "ingredient", "amount"}

func ParseGroupingPolicy(s string) (GroupingPolicy, error) {
	switch p := GroupingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PerRecipe, PerIngredient:
		return p, nil
	default:
		return "", invalid("group_by", "must be %q or %q", PerRecipe, PerIngredient)
	}
}

// ShoppingListItem is one report row. Recipe holds the contributing recipe
// names joined by "; " under PerIngredient.
type ShoppingListItem struct {
	Recipe          string
	Ingredient      string
	MeasurementUnit string
	Amount          int64
}

type ShoppingListService interface {
	Items(ctx context.Context, userID string, policy GroupingPolicy) ([]ShoppingListItem, error)
	// Export writes the header and one row per item, separated by delim.
	Export(ctx context.Context, w io.Writer, userID string, policy GroupingPolicy, delim rune) error
}

type shoppingListService struct {
	repo repository.ShoppingListRepository
}

func NewShoppingListService(repo repository.ShoppingListRepository) ShoppingListService {
	return &shoppingListService{repo: repo}
}

func (s *shoppingListService) Items(ctx context.Context, userID string, policy GroupingPolicy) ([]ShoppingListItem, error) {
	rows, err := s.repo.Rows(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch policy {
	case PerRecipe, "":
		items := make([]ShoppingListItem, 0, len(rows))
		for _, r := range rows {
			items = append(items, ShoppingListItem{
				Recipe:          r.RecipeName,
				Ingredient:      r.IngredientName,
				MeasurementUnit: r.MeasurementUnit,
				Amount:          r.Amount,
			})
		}
		return items, nil
	case PerIngredient:
		return mergeByIngredient(rows), nil
	default:
		return nil, fmt.Errorf("unknown grouping policy %q", policy)
	}
}

func (s *shoppingListService) Export(ctx context.Context, w io.Writer, userID string, policy GroupingPolicy, delim rune) error {
	items, err := s.Items(ctx, userID, policy)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(shoppingListHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, it := range items {
		record := []string{
			it.Recipe,
			it.Ingredient + ", " + it.MeasurementUnit,
			strconv.FormatInt(it.Amount, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func mergeByIngredient(rows []repository.ShoppingListRow) []ShoppingListItem {
	type key struct{ name, unit string }
	merged := map[key]*ShoppingListItem{}
	recipes := map[key][]string{}
	var order []key

	for _, r := range rows {
		k := key{r.IngredientName, r.MeasurementUnit}
		it, ok := merged[k]
		if !ok {
			it = &ShoppingListItem{Ingredient: r.IngredientName, MeasurementUnit: r.MeasurementUnit}
			merged[k] = it
			order = append(order, k)
		}
		it.Amount += r.Amount
		names := recipes[k]
		if len(names) == 0 || names[len(names)-1] != r.RecipeName {
			recipes[k] = append(names, r.RecipeName)
		}
	}

	items := make([]ShoppingListItem, 0, len(order))
	for _, k := range order {
		it := merged[k]
		it.Recipe = strings.Join(recipes[k], "; ")
		items = append(items, *it)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Recipe != items[j].Recipe {
			return items[i].Recipe < items[j].Recipe
		}
		return items[i].Ingredient < items[j].Ingredient
	})
	return items
}
