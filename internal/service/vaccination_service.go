package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/queue"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"go.uber.org/zap"
)

// ScheduleInput carries the fields staff provide when booking a vaccination.
type ScheduleInput struct {
	AnimalID      string
	VaccineName   string
	ScheduledDate time.Time
}

// ListQuery filters vaccinations. Status is evaluated against today in the clinic time zone.
type ListQuery struct {
	AnimalID string
	Status   *domain.Status
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// ClassifiedVaccination is a vaccination with its status as of Today.
type ClassifiedVaccination struct {
	domain.Vaccination
	Status domain.Status
}

type ListResult struct {
	Items    []ClassifiedVaccination
	Total    int64
	Page     int
	PageSize int
}

type VaccinationService struct {
	vaccinations repository.VaccinationRepository
	animals      repository.AnimalRepository
	options
}

func NewVaccinationService(
	vaccinations repository.VaccinationRepository,
	animals repository.AnimalRepository,
	opts ...Option,
) (*VaccinationService, error) {
	if vaccinations == nil {
		return nil, fmt.Errorf("vaccination repository is required")
	}
	if animals == nil {
		return nil, fmt.Errorf("animal repository is required")
	}

	return &VaccinationService{
		vaccinations: vaccinations,
		animals:      animals,
		options:      newOptions(opts),
	}, nil
}

// Today is the current calendar date in the clinic time zone.
func (s *VaccinationService) Today() time.Time {
	return s.today()
}

func (s *VaccinationService) Schedule(ctx context.Context, in ScheduleInput) (*ClassifiedVaccination, error) {
	const op = "schedule vaccination"

	v := &domain.Vaccination{
		AnimalID:      strings.TrimSpace(in.AnimalID),
		VaccineName:   strings.TrimSpace(in.VaccineName),
		ScheduledDate: domain.DateOf(in.ScheduledDate),
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	today := s.today()
	if v.ScheduledDate.Before(today) {
		return nil, fmt.Errorf("%w: scheduledDate %s is before today (%s)",
			domain.ErrValidation, domain.FormatDate(v.ScheduledDate), domain.FormatDate(today))
	}

	if err := s.ensureAnimalExists(ctx, op, v.AnimalID); err != nil {
		return nil, err
	}

	v.ID = uuid.NewString()
	v.Completed = false
	v.NotificationSent = false

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.vaccinations.Create(storeCtx, v); err != nil {
		return nil, err
	}

	s.metrics.IncVaccinationScheduled()
	s.loggerFor(ctx).Info("vaccination scheduled",
		zap.String("vaccinationId", v.ID),
		zap.String("animalId", v.AnimalID),
		zap.String("scheduledDate", domain.FormatDate(v.ScheduledDate)),
	)
	s.publish(ctx, queue.NewVaccinationEvent(queue.EventVaccinationScheduled, *v, s.now()))

	return &ClassifiedVaccination{Vaccination: *v, Status: domain.Classify(*v, today)}, nil
}

func (s *VaccinationService) GetByID(ctx context.Context, id string) (*ClassifiedVaccination, error) {
	v, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClassifiedVaccination{Vaccination: *v, Status: domain.Classify(*v, s.today())}, nil
}

func (s *VaccinationService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, fmt.Errorf("%w: from must not be after to", domain.ErrValidation)
	}

	today := s.today()
	params := repository.ListParams{
		ScheduledFrom: q.From,
		ScheduledTo:   q.To,
		Page:          q.Page,
		PageSize:      q.PageSize,
	}
	if animalID := strings.TrimSpace(q.AnimalID); animalID != "" {
		params.AnimalID = &animalID
	}
	if q.Status != nil {
		criteria := q.Status.Criteria(today)
		completed := criteria.Completed
		params.Completed = &completed
		params.ScheduledFrom = laterDate(params.ScheduledFrom, criteria.ScheduledFrom)
		params.ScheduledTo = earlierDate(params.ScheduledTo, criteria.ScheduledTo)
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	items, total, err := s.vaccinations.List(storeCtx, params)
	if err != nil {
		return nil, err
	}

	page, pageSize := params.Pagination()
	result := &ListResult{
		Items:    make([]ClassifiedVaccination, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, v := range items {
		result.Items = append(result.Items, ClassifiedVaccination{Vaccination: v, Status: domain.Classify(v, today)})
	}
	return result, nil
}

// MarkCompleted sets the completed flag. Completing an already completed
// vaccination succeeds without side effects.
func (s *VaccinationService) MarkCompleted(ctx context.Context, id string) (*ClassifiedVaccination, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Completed {
		return &ClassifiedVaccination{Vaccination: *current, Status: domain.StatusCompleted}, nil
	}

	storeCtx, cancel := s.storeCtx(ctx)
	err = s.vaccinations.MarkCompleted(storeCtx, id)
	cancel()
	if err != nil {
		return nil, err
	}

	updated, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.IncVaccinationCompleted()
	s.loggerFor(ctx).Info("vaccination completed",
		zap.String("vaccinationId", updated.ID),
		zap.String("animalId", updated.AnimalID),
	)
	s.publish(ctx, queue.NewVaccinationEvent(queue.EventVaccinationCompleted, *updated, s.now()))

	return &ClassifiedVaccination{Vaccination: *updated, Status: domain.Classify(*updated, s.today())}, nil
}

func (s *VaccinationService) get(ctx context.Context, id string) (*domain.Vaccination, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: vaccination id is required", domain.ErrValidation)
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.vaccinations.GetByID(storeCtx, id)
}

func (s *VaccinationService) ensureAnimalExists(ctx context.Context, op string, animalID string) error {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	_, err := s.animals.GetByID(storeCtx, animalID)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.OperationError{
			Op:   op,
			ID:   animalID,
			Kind: domain.ErrReference,
			Err:  errors.New("animal does not exist"),
		}
	}
	return err
}

func laterDate(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

func earlierDate(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}
