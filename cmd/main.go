package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wisata-bali-recommender/internal/config"
	"wisata-bali-recommender/internal/database"
	"wisata-bali-recommender/internal/handler"
	"wisata-bali-recommender/internal/metrics"
	"wisata-bali-recommender/internal/middleware"
	"wisata-bali-recommender/internal/places"
	"wisata-bali-recommender/internal/repository"
	"wisata-bali-recommender/internal/service"
	"wisata-bali-recommender/internal/weather"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	metrics.RegisterDefault()

	db, err := database.Open(cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis (non-fatal if unavailable)
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache and rate limiting", "error", err)
	} else if rdb == nil {
		slog.Info("REDIS_ADDR empty, running without cache and rate limiting")
	}

	// Outbound clients
	weatherClient := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timezone, cfg.Weather.RPS)
	photoClient := places.NewPhotoClient(cfg.Places.FoursquareKey, cfg.Places.FoursquareURL)
	var placeSource service.PlaceSource
	if geo := places.NewGeoapifyClient(cfg.Places.GeoapifyKey, cfg.Places.GeoapifyBaseURL); geo.Configured() {
		placeSource = geo
	} else {
		slog.Warn("GEOAPIFY_API_KEY not set, catalog sync disabled")
	}

	// Initialize layers
	destRepo := repository.NewDestinationRepository(db)
	recSvc, err := service.NewRecommendationService(service.RecommendationDeps{
		Catalog:  destRepo,
		Weights:  repository.NewWeightRepository(db),
		Runs:     repository.NewRecommendationRepository(db),
		Weather:  weatherClient,
		Photos:   photoClient,
		Redis:    rdb,
		Params:   cfg.Engine.Params(),
		CacheTTL: cfg.CacheTTL,
	})
	if err != nil {
		slog.Error("invalid engine configuration", "error", err)
		os.Exit(1)
	}
	catalogSvc := service.NewCatalogService(destRepo, placeSource, rdb)

	// Swagger docs
	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
	}

	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN not set, admin endpoints will reject every request")
	}

	app := handler.NewApp(handler.Routes{
		Recommendations: handler.NewRecommendationHandler(recSvc),
		Destinations:    handler.NewDestinationHandler(catalogSvc),
		RateLimit:       middleware.NewRateLimiter(rdb, "recommend", cfg.RateLimit.Max, cfg.RateLimit.Window).Handler(),
		AdminToken:      cfg.AdminToken,
		Swagger:         swaggerYAML,
		AccessLog:       true,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down wisata bali recommender...")
		_ = app.Shutdown()
	}()

	addr := ":" + cfg.Port
	slog.Info("starting wisata bali recommender", "addr", addr, "db_driver", cfg.DB.Driver)
	if err := app.Listen(addr); err != nil {
		slog.Error("server error", "error", err)
	}

	// let in-flight history writes land before the database closes
	recSvc.Wait()
	if rdb != nil {
		_ = rdb.Close()
	}
}
