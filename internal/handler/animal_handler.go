package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/service"
)

type AnimalService interface {
	Register(ctx context.Context, in service.RegisterAnimalInput) (*domain.Animal, error)
	GetByID(ctx context.Context, id string) (*domain.Animal, error)
}

type AnimalHandler struct {
	service AnimalService
}

func NewAnimalHandler(service AnimalService) (*AnimalHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("animal service is required")
	}
	return &AnimalHandler{service: service}, nil
}

func RegisterAnimalRoutes(router fiber.Router, service AnimalService) error {
	h, err := NewAnimalHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/animals", h.RegisterAnimal)
	v1.Get("/animals/:id", h.GetAnimal)

	return nil
}

type registerAnimalRequest struct {
	Name       string `json:"name"`
	Species    string `json:"species"`
	OwnerName  string `json:"ownerName"`
	OwnerPhone string `json:"ownerPhone"`
	OwnerEmail string `json:"ownerEmail"`
}

type animalResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Species    string    `json:"species,omitempty"`
	OwnerName  string    `json:"ownerName,omitempty"`
	OwnerPhone string    `json:"ownerPhone,omitempty"`
	OwnerEmail string    `json:"ownerEmail,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

func (h *AnimalHandler) RegisterAnimal(c *fiber.Ctx) error {
	var req registerAnimalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	animal, err := h.service.Register(requestContext(c), service.RegisterAnimalInput{
		Name:       req.Name,
		Species:    req.Species,
		OwnerName:  req.OwnerName,
		OwnerPhone: req.OwnerPhone,
		OwnerEmail: req.OwnerEmail,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toAnimalResponse(animal))
}

func (h *AnimalHandler) GetAnimal(c *fiber.Ctx) error {
	animal, err := h.service.GetByID(requestContext(c), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toAnimalResponse(animal))
}

func toAnimalResponse(a *domain.Animal) animalResponse {
	if a == nil {
		return animalResponse{}
	}

	return animalResponse{
		ID:         a.ID,
		Name:       a.Name,
		Species:    a.Species,
		OwnerName:  a.OwnerName,
		OwnerPhone: a.OwnerPhone,
		OwnerEmail: a.OwnerEmail,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
