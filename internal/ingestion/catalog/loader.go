// Package catalog bulk-loads the read-only tag and ingredient catalog.
package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodgram/internal/microservices/http-api/models"
)

const batchSize = 500

var (
	hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugRe   = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Format of an input file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(strings.ToLower(path), ".json"):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported file type %q, expected .csv or .json", path)
	}
}

type IngredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type TagRecord struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// Result counts what an import did.
type Result struct {
	Created int
	Skipped int
}

// ReadIngredients parses `name,unit` CSV rows (no header) or a JSON array
// of {"name", "measurement_unit"} objects.
func ReadIngredients(r io.Reader, format Format) ([]IngredientRecord, error) {
	switch format {
	case FormatJSON:
		var records []IngredientRecord
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		return records, nil
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = 2
		reader.TrimLeadingSpace = true

		var records []IngredientRecord
		for {
			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read CSV: %w", err)
			}
			records = append(records, IngredientRecord{Name: row[0], MeasurementUnit: row[1]})
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ReadTags parses a JSON array of {"name", "color", "slug"} objects.
func ReadTags(r io.Reader) ([]TagRecord, error) {
	var records []TagRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return records, nil
}

type Loader struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewLoader(db *gorm.DB, log *slog.Logger) *Loader {
	return &Loader{db: db, log: log}
}

type ingredientKey struct {
	name string
	unit string
}

// LoadIngredients inserts every (name, unit) pair not already present.
// Blank rows and repeats are skipped. The whole file commits or nothing does.
func (l *Loader) LoadIngredients(ctx context.Context, records []IngredientRecord) (Result, error) {
	var res Result
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Ingredient
		if err := tx.Select("name", "measurement_unit").Find(&existing).Error; err != nil {
			return err
		}
		seen := make(map[ingredientKey]struct{}, len(existing)+len(records))
		for _, ing := range existing {
			seen[ingredientKey{ing.Name, ing.MeasurementUnit}] = struct{}{}
		}

		batch := make([]models.Ingredient, 0, len(records))
		for i, rec := range records {
			key := ingredientKey{strings.TrimSpace(rec.Name), strings.TrimSpace(rec.MeasurementUnit)}
			if key.name == "" || key.unit == "" {
				l.log.Warn("skipping incomplete ingredient", "row", i+1, "name", rec.Name)
				res.Skipped++
				continue
			}
			if _, dup := seen[key]; dup {
				res.Skipped++
				continue
			}
			seen[key] = struct{}{}
			batch = append(batch, models.Ingredient{Name: key.name, MeasurementUnit: key.unit})
		}

		if len(batch) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&batch, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert ingredients: %w", err)
		}
		res.Created = len(batch)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// LoadTags validates every record first, then inserts the tags whose name,
// color and slug are all unused.
func (l *Loader) LoadTags(ctx context.Context, records []TagRecord) (Result, error) {
	tags := make([]models.Tag, 0, len(records))
	for i, rec := range records {
		tag := models.Tag{
			Name:  strings.TrimSpace(rec.Name),
			Color: strings.ToUpper(strings.TrimSpace(rec.Color)),
			Slug:  strings.TrimSpace(rec.Slug),
		}
		switch {
		case tag.Name == "":
			return Result{}, fmt.Errorf("tag %d: name is required", i+1)
		case !hexColor.MatchString(tag.Color):
			return Result{}, fmt.Errorf("tag %q: color %q is not #RRGGBB", tag.Name, rec.Color)
		case !slugRe.MatchString(tag.Slug):
			return Result{}, fmt.Errorf("tag %q: invalid slug %q", tag.Name, rec.Slug)
		}
		tags = append(tags, tag)
	}

	var res Result
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tag := range tags {
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag)
			if result.Error != nil {
				return fmt.Errorf("failed to insert tag %q: %w", tag.Name, result.Error)
			}
			if result.RowsAffected == 0 {
				l.log.Info("tag already present", "slug", tag.Slug)
				res.Skipped++
				continue
			}
			res.Created++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
