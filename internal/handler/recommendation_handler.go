package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"wisata-bali-recommender/internal/models"
	"wisata-bali-recommender/internal/service"
)

// RecommendationHandler handles HTTP requests for recommendations.
type RecommendationHandler struct {
	svc *service.RecommendationService
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(svc *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// Health godoc
// GET /health
func (h *RecommendationHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "wisata-bali-recommender",
	})
}

// Recommend godoc
// POST /recommend, POST /api/v1/recommend
func (h *RecommendationHandler) Recommend(c fiber.Ctx) error {
	var req models.RecommendRequest
	if err := c.Bind().JSON(&req); err != nil {
		return bindError(c, err)
	}

	resp, err := h.svc.Recommend(c.Context(), req)
	if err != nil {
		return writeError(c, err, "failed to generate recommendations")
	}

	return c.JSON(resp)
}

// GetRun godoc
// GET /api/v1/recommendations/:id
func (h *RecommendationHandler) GetRun(c fiber.Ctx) error {
	resp, err := h.svc.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "failed to retrieve recommendation run")
	}
	return c.JSON(resp)
}

// Weather godoc
// GET /api/v1/weather/:timeOfDay?lat=&lon=
func (h *RecommendationHandler) Weather(c fiber.Ctx) error {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "lat and lon query parameters are required",
		})
	}

	info, err := h.svc.Weather(c.Context(), models.GeoPoint{Lat: lat, Lon: lon}, models.TimeOfDay(c.Params("timeOfDay")))
	if err != nil {
		return writeError(c, err, "failed to retrieve weather")
	}
	return c.JSON(info)
}

// GetWeights godoc
// GET /api/v1/weights
func (h *RecommendationHandler) GetWeights(c fiber.Ctx) error {
	rules, err := h.svc.ActiveWeights(c.Context())
	if err != nil {
		return writeError(c, err, "failed to retrieve weights")
	}
	return c.JSON(fiber.Map{"weights": rules})
}
