package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/service"
)

// CleanupService is the manual trigger for the same job the scheduler runs.
type CleanupService interface {
	RunNow(ctx context.Context) (*service.CleanupResult, error)
	CountEligibleNow(ctx context.Context) (*service.EligibleResult, error)
}

type CleanupHandler struct {
	service CleanupService
}

func NewCleanupHandler(service CleanupService) (*CleanupHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("cleanup service is required")
	}
	return &CleanupHandler{service: service}, nil
}

func RegisterCleanupRoutes(router fiber.Router, service CleanupService) error {
	h, err := NewCleanupHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/cleanup", h.RunCleanup)
	v1.Get("/cleanup/eligible", h.CountEligible)

	return nil
}

type cleanupResponse struct {
	Cutoff       string    `json:"cutoff"`
	DeletedCount int64     `json:"deletedCount"`
	RanAt        time.Time `json:"ranAt"`
}

type eligibleResponse struct {
	Cutoff        string    `json:"cutoff"`
	EligibleCount int64     `json:"eligibleCount"`
	AsOf          time.Time `json:"asOf"`
}

func (h *CleanupHandler) RunCleanup(c *fiber.Ctx) error {
	result, err := h.service.RunNow(requestContext(c))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(cleanupResponse{
		Cutoff:       domain.FormatDate(result.Cutoff),
		DeletedCount: result.DeletedCount,
		RanAt:        result.RanAt,
	})
}

func (h *CleanupHandler) CountEligible(c *fiber.Ctx) error {
	result, err := h.service.CountEligibleNow(requestContext(c))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(eligibleResponse{
		Cutoff:        domain.FormatDate(result.Cutoff),
		EligibleCount: result.EligibleCount,
		AsOf:          result.AsOf,
	})
}
