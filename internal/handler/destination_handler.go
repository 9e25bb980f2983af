package handler

import (
	"github.com/gofiber/fiber/v3"

	"wisata-bali-recommender/internal/models"
	"wisata-bali-recommender/internal/service"
)

// DestinationHandler serves the destination catalog.
type DestinationHandler struct {
	svc *service.CatalogService
}

// NewDestinationHandler creates a new DestinationHandler.
func NewDestinationHandler(svc *service.CatalogService) *DestinationHandler {
	return &DestinationHandler{svc: svc}
}

// List godoc
// GET /api/v1/destinations?kabupaten=&limit=&offset=
func (h *DestinationHandler) List(c fiber.Ctx) error {
	params := models.DestinationListParams{
		Kabupaten: c.Query("kabupaten"),
		Limit:     fiber.Query(c, "limit", 50),
		Offset:    fiber.Query(c, "offset", 0),
	}

	result, err := h.svc.List(c.Context(), params)
	if err != nil {
		return writeError(c, err, "failed to retrieve destinations")
	}
	return c.JSON(result)
}

// Get godoc
// GET /api/v1/destinations/:kode
func (h *DestinationHandler) Get(c fiber.Ctx) error {
	d, err := h.svc.Get(c.Context(), c.Params("kode"))
	if err != nil {
		return writeError(c, err, "failed to retrieve destination")
	}
	return c.JSON(d)
}

// Sync godoc
// POST /api/v1/admin/sync
func (h *DestinationHandler) Sync(c fiber.Ctx) error {
	result, err := h.svc.Sync(c.Context())
	if err != nil {
		return writeError(c, err, "failed to sync destinations")
	}
	return c.JSON(fiber.Map{
		"message": "sync completed",
		"result":  result,
	})
}
