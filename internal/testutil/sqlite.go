// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/database"
	"foodgram/internal/microservices/http-api/models"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:foodgram_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Fixtures is a small catalog shared by most tests.
type Fixtures struct {
	Author models.User
	Reader models.User
	Salt   models.Ingredient
	Flour  models.Ingredient
	Eggs   models.Ingredient
	Tags   []models.Tag
}

func Seed(t *testing.T, db *gorm.DB) Fixtures {
	t.Helper()

	f := Fixtures{
		Author: models.User{Email: "chef@example.com", Username: "chef", FirstName: "Julia", LastName: "Child", Password: "x"},
		Reader: models.User{Email: "reader@example.com", Username: "reader", FirstName: "Ann", LastName: "Reader", Password: "x"},
		Salt:   models.Ingredient{Name: "Salt", MeasurementUnit: "g"},
		Flour:  models.Ingredient{Name: "Flour", MeasurementUnit: "g"},
		Eggs:   models.Ingredient{Name: "Eggs", MeasurementUnit: "pcs"},
		Tags: []models.Tag{
			{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
			{Name: "Dinner", Color: "#49B64E", Slug: "dinner"},
		},
	}
	require.NoError(t, db.Create(&f.Author).Error)
	require.NoError(t, db.Create(&f.Reader).Error)
	require.NoError(t, db.Create(&f.Salt).Error)
	require.NoError(t, db.Create(&f.Flour).Error)
	require.NoError(t, db.Create(&f.Eggs).Error)
	require.NoError(t, db.Create(&f.Tags).Error)
	return f
}
