package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/database"
	"foodgram/internal/cache"
	"foodgram/internal/config"
	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/handler"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/microservices/http-api/service"
	"foodgram/internal/storage"
)

func main() {
	// 1️⃣ Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// 2️⃣ Connect to the database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// Redis is optional: without it the tag cache always misses and logout
	// cannot revoke tokens.
	rdb, err := database.ConnectRedis(context.Background(), cfg)
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	images, err := storage.NewLocalImageStore(cfg.MediaRoot, cfg.UploadMaxBytes)
	if err != nil {
		logger.Error("media storage unavailable", "error", err)
		os.Exit(1)
	}

	grouping, err := service.ParseGroupingPolicy(cfg.ShoppingListGrouping)
	if err != nil {
		logger.Error("invalid shopping list grouping", "error", err)
		os.Exit(1)
	}

	// 3️⃣ Wire repositories, services and handlers
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)

	authSvc := service.NewAuthService(userRepo, cache.NewTokenDenylist(rdb), cfg)
	userSvc := service.NewUserService(userRepo, subRepo, recipeRepo)
	catalogSvc := service.NewCatalogService(
		repository.NewTagRepository(db),
		repository.NewIngredientRepository(db),
		cache.NewTagCache(rdb, time.Duration(cfg.CacheTTL)*time.Second),
		logger,
	)
	recipeSvc := service.NewRecipeService(
		recipeRepo,
		repository.NewFavoriteRepository(db),
		repository.NewShoppingCartRepository(db),
		subRepo,
		images,
		logger,
	)
	shoppingSvc := service.NewShoppingListService(repository.NewShoppingListRepository(db))

	// 4️⃣ Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())

	r.GET("/check-conn", func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"message": "database unreachable"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	})
	r.Static(strings.TrimSuffix(dto.MediaURL, "/"), images.Root())

	handler.RegisterRoutes(r.Group("/api"), handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc, cfg.AccessTokenTTL),
		Users:   handler.NewUserHandler(userSvc, authSvc, cfg.PageSize),
		Catalog: handler.NewCatalogHandler(catalogSvc),
		Recipes: handler.NewRecipeHandler(recipeSvc, shoppingSvc, grouping, cfg.PageSize),
	}, authSvc)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server running", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
