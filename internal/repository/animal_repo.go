package repository

import (
	"context"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"gorm.io/gorm"
)

type AnimalRepository interface {
	Create(ctx context.Context, a *domain.Animal) error
	GetByID(ctx context.Context, id string) (*domain.Animal, error)
}

type GormAnimalRepo struct {
	db *gorm.DB
}

func NewGormAnimalRepo(db *gorm.DB) *GormAnimalRepo {
	return &GormAnimalRepo{db: db}
}

func (r *GormAnimalRepo) Create(ctx context.Context, a *domain.Animal) error {
	model := animalModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return storeError("create animal", a.ID, err)
	}
	*a = *animalModelToDomain(model)
	return nil
}

func (r *GormAnimalRepo) GetByID(ctx context.Context, id string) (*domain.Animal, error) {
	if !isRowID(id) {
		return nil, notFoundError("get animal", id)
	}
	var model AnimalModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, storeError("get animal", id, err)
	}
	return animalModelToDomain(&model), nil
}
