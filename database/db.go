package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/config"
	"foodgram/internal/microservices/http-api/models"
)

// Connect opens the Postgres pool, retrying with capped exponential backoff
// while the database container comes up, then runs AutoMigrate.
func Connect(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg)),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	attempts := max(cfg.DBMaxRetries, 1)
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if err = sqlDB.Ping(); err == nil {
					log.Info("connected to the database", "attempt", i)
					break
				}
			} else {
				err = dbErr
			}
		}

		log.Warn("database connection attempt failed", "attempt", i, "error", err)
		if i == attempts {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
		}
		wait := time.Duration(1<<uint(i-1)) * time.Second
		if wait > 10*time.Second {
			wait = 10 * time.Second
		}
		time.Sleep(wait)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database migrations applied successfully")
	return db, nil
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(cfg *config.Config) logger.LogLevel {
	switch {
	case cfg.LogLevel == "debug":
		return logger.Info
	case cfg.IsProduction():
		return logger.Error
	default:
		return logger.Warn
	}
}
