package repository

import (
	"context"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"gorm.io/gorm"
)

const (
	defaultListPageSize = 50
	maxListPageSize     = 100
)

// ListParams filters vaccination listings. Date bounds are inclusive calendar dates.
type ListParams struct {
	AnimalID      *string
	Completed     *bool
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	Page          int
	PageSize      int
}

// Pagination returns the effective page and page size after defaults and caps.
func (p ListParams) Pagination() (page int, pageSize int) {
	page = max(p.Page, 1)
	pageSize = p.PageSize
	if pageSize < 1 {
		pageSize = defaultListPageSize
	}
	return page, min(pageSize, maxListPageSize)
}

type VaccinationRepository interface {
	Create(ctx context.Context, v *domain.Vaccination) error
	GetByID(ctx context.Context, id string) (*domain.Vaccination, error)
	List(ctx context.Context, params ListParams) ([]domain.Vaccination, int64, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkNotificationSent(ctx context.Context, id string) error
	// DeleteStale removes every incomplete vaccination scheduled before cutoff
	// in one statement and returns the number of rows removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
	CountStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type GormVaccinationRepo struct {
	db *gorm.DB
}

func NewGormVaccinationRepo(db *gorm.DB) *GormVaccinationRepo {
	return &GormVaccinationRepo{db: db}
}

func (r *GormVaccinationRepo) Create(ctx context.Context, v *domain.Vaccination) error {
	if !isRowID(v.AnimalID) {
		return referenceError("create vaccination for animal", v.AnimalID)
	}
	model := vaccinationModelFromDomain(v)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return storeError("create vaccination for animal", v.AnimalID, err)
	}
	*v = *vaccinationModelToDomain(model)
	return nil
}

func (r *GormVaccinationRepo) GetByID(ctx context.Context, id string) (*domain.Vaccination, error) {
	if !isRowID(id) {
		return nil, notFoundError("get vaccination", id)
	}
	var model VaccinationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, storeError("get vaccination", id, err)
	}
	return vaccinationModelToDomain(&model), nil
}

func (r *GormVaccinationRepo) List(ctx context.Context, params ListParams) ([]domain.Vaccination, int64, error) {
	if params.AnimalID != nil && !isRowID(*params.AnimalID) {
		return []domain.Vaccination{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&VaccinationModel{})

	if params.AnimalID != nil {
		query = query.Where("animal_id = ?", *params.AnimalID)
	}
	if params.Completed != nil {
		query = query.Where("completed = ?", *params.Completed)
	}
	if params.ScheduledFrom != nil {
		query = query.Where("scheduled_date >= ?", domain.DateOf(*params.ScheduledFrom))
	}
	if params.ScheduledTo != nil {
		query = query.Where("scheduled_date <= ?", domain.DateOf(*params.ScheduledTo))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError("count vaccinations", "", err)
	}

	page, pageSize := params.Pagination()

	var models []VaccinationModel
	err := query.
		Order("scheduled_date ASC").
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, storeError("list vaccinations", "", err)
	}

	vaccinations := make([]domain.Vaccination, 0, len(models))
	for i := range models {
		vaccinations = append(vaccinations, *vaccinationModelToDomain(&models[i]))
	}

	return vaccinations, total, nil
}

// MarkCompleted is idempotent: PostgreSQL counts matched rows, so a second
// call on a completed record still affects one row.
func (r *GormVaccinationRepo) MarkCompleted(ctx context.Context, id string) error {
	return r.setFlag(ctx, "mark completed vaccination", id, "completed")
}

func (r *GormVaccinationRepo) MarkNotificationSent(ctx context.Context, id string) error {
	return r.setFlag(ctx, "mark reminder sent for vaccination", id, "notification_sent")
}

func (r *GormVaccinationRepo) setFlag(ctx context.Context, op string, id string, column string) error {
	if !isRowID(id) {
		return notFoundError(op, id)
	}
	result := r.db.WithContext(ctx).
		Model(&VaccinationModel{}).
		Where("id = ?", id).
		Update(column, true)
	if result.Error != nil {
		return storeError(op, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError(op, id)
	}
	return nil
}

func (r *GormVaccinationRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("scheduled_date < ? AND completed = ?", domain.DateOf(cutoff), false).
		Delete(&VaccinationModel{})
	if result.Error != nil {
		return 0, storeError("delete stale vaccinations before", domain.FormatDate(cutoff), result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormVaccinationRepo) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&VaccinationModel{}).
		Where("scheduled_date < ? AND completed = ?", domain.DateOf(cutoff), false).
		Count(&count).Error
	if err != nil {
		return 0, storeError("count stale vaccinations before", domain.FormatDate(cutoff), err)
	}
	return count, nil
}
