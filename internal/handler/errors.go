package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"wisata-bali-recommender/internal/genetic"
	"wisata-bali-recommender/internal/models"
	"wisata-bali-recommender/internal/repository"
	"wisata-bali-recommender/internal/service"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

func statusFor(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, genetic.ErrInvalidInput),
		errors.Is(err, genetic.ErrInvalidConfig),
		errors.Is(err, models.ErrInvalidPreference):
		return fiber.StatusBadRequest
	case errors.Is(err, genetic.ErrEmptyCatalog),
		errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrSyncUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// writeError maps a service error onto a status code. Server errors are
// logged and replaced by fallback so internals do not leak.
func writeError(c fiber.Ctx, err error, fallback string) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		slog.Error(fallback, "path", c.Path(), "error", err)
		return c.Status(code).JSON(ErrorResponse{Error: fallback})
	}
	resp := ErrorResponse{Error: err.Error()}
	var ve *ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	return c.Status(code).JSON(resp)
}

// bindError reports a request body that could not be decoded or validated.
func bindError(c fiber.Ctx, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: ve.Error(), Fields: ve.Fields})
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
}

// ErrorHandler is the application-wide fallback for errors returned by handlers.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled error", "error", err, "status", code)
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}
