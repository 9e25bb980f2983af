package handler

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wisata-bali-recommender/internal/metrics"
	"wisata-bali-recommender/internal/middleware"
)

// Routes collects the handlers and options mounted by NewApp.
type Routes struct {
	Recommendations *RecommendationHandler
	Destinations    *DestinationHandler

	// RateLimit guards the recommend endpoints when set.
	RateLimit  fiber.Handler
	AdminToken string
	Swagger    []byte
	AccessLog  bool
}

// NewApp builds the Fiber application with middleware and all routes.
func NewApp(r Routes) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:         "Wisata Bali Recommender",
		ServerHeader:    "Wisata-Bali-Recommender",
		ErrorHandler:    ErrorHandler,
		JSONEncoder:     json.Marshal,
		JSONDecoder:     json.Unmarshal,
		StructValidator: StructValidator{},
	})

	app.Use(recover.New())
	app.Use(middleware.Metrics())
	if r.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	if len(r.Swagger) > 0 {
		RegisterSwagger(app, "Wisata Bali Recommender", r.Swagger)
	}

	limit := r.RateLimit
	if limit == nil {
		limit = func(c fiber.Ctx) error { return c.Next() }
	}

	rec := r.Recommendations
	app.Get("/health", rec.Health)
	app.Post("/recommend", limit, rec.Recommend)

	api := app.Group("/api/v1")
	api.Get("/health", rec.Health)
	api.Post("/recommend", limit, rec.Recommend)
	api.Get("/recommendations/:id", rec.GetRun)
	api.Get("/weather/:timeOfDay", rec.Weather)
	api.Get("/weights", rec.GetWeights)

	if d := r.Destinations; d != nil {
		api.Get("/destinations", d.List)
		api.Get("/destinations/:kode", d.Get)
		api.Post("/admin/sync", middleware.AdminAuth(r.AdminToken), d.Sync)
	}

	return app
}
