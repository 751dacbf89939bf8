package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"go.uber.org/zap"
)

type RegisterAnimalInput struct {
	Name       string
	Species    string
	OwnerName  string
	OwnerPhone string
	OwnerEmail string
}

// AnimalService registers the patients vaccinations refer to.
type AnimalService struct {
	animals repository.AnimalRepository
	options
}

func NewAnimalService(animals repository.AnimalRepository, opts ...Option) (*AnimalService, error) {
	if animals == nil {
		return nil, fmt.Errorf("animal repository is required")
	}
	return &AnimalService{animals: animals, options: newOptions(opts)}, nil
}

func (s *AnimalService) Register(ctx context.Context, in RegisterAnimalInput) (*domain.Animal, error) {
	a := &domain.Animal{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		Species:    strings.TrimSpace(in.Species),
		OwnerName:  strings.TrimSpace(in.OwnerName),
		OwnerPhone: strings.TrimSpace(in.OwnerPhone),
		OwnerEmail: strings.TrimSpace(in.OwnerEmail),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.animals.Create(storeCtx, a); err != nil {
		return nil, err
	}

	s.loggerFor(ctx).Info("animal registered", zap.String("animalId", a.ID))
	return a, nil
}

func (s *AnimalService) GetByID(ctx context.Context, id string) (*domain.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: animal id is required", domain.ErrValidation)
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.animals.GetByID(storeCtx, id)
}
