package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
)

// MemoryStore keeps animals and vaccinations in process memory. It backs the
// service when no database is configured and enforces the same animal
// reference rule as the foreign key.
type MemoryStore struct {
	mu           sync.RWMutex
	animals      map[string]domain.Animal
	vaccinations map[string]domain.Vaccination
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		animals:      make(map[string]domain.Animal),
		vaccinations: make(map[string]domain.Vaccination),
		now:          time.Now,
	}
}

func (s *MemoryStore) Animals() AnimalRepository {
	return memoryAnimalRepo{store: s}
}

func (s *MemoryStore) Vaccinations() VaccinationRepository {
	return memoryVaccinationRepo{store: s}
}

type memoryAnimalRepo struct {
	store *MemoryStore
}

func (r memoryAnimalRepo) Create(ctx context.Context, a *domain.Animal) error {
	if err := ctx.Err(); err != nil {
		return storeError("create animal", a.ID, err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return &domain.OperationError{Op: "create animal", Kind: domain.ErrStore, Err: errMissingID}
	}
	if _, exists := s.animals[a.ID]; exists {
		return &domain.OperationError{Op: "create animal", ID: a.ID, Kind: domain.ErrStore, Err: errDuplicateID}
	}

	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.animals[a.ID] = *a
	return nil
}

func (r memoryAnimalRepo) GetByID(ctx context.Context, id string) (*domain.Animal, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("get animal", id, err)
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.animals[id]
	if !ok {
		return nil, notFoundError("get animal", id)
	}
	return &a, nil
}

type memoryVaccinationRepo struct {
	store *MemoryStore
}

func (r memoryVaccinationRepo) Create(ctx context.Context, v *domain.Vaccination) error {
	const op = "create vaccination for animal"
	if err := ctx.Err(); err != nil {
		return storeError(op, v.AnimalID, err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" {
		return &domain.OperationError{Op: op, ID: v.AnimalID, Kind: domain.ErrStore, Err: errMissingID}
	}
	if _, exists := s.vaccinations[v.ID]; exists {
		return &domain.OperationError{Op: op, ID: v.AnimalID, Kind: domain.ErrStore, Err: errDuplicateID}
	}
	if _, ok := s.animals[v.AnimalID]; !ok {
		return &domain.OperationError{Op: op, ID: v.AnimalID, Kind: domain.ErrReference, Err: errUnknownAnimal}
	}

	now := s.now().UTC()
	v.ScheduledDate = domain.DateOf(v.ScheduledDate)
	v.CreatedAt = now
	v.UpdatedAt = now
	s.vaccinations[v.ID] = *v
	return nil
}

func (r memoryVaccinationRepo) GetByID(ctx context.Context, id string) (*domain.Vaccination, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("get vaccination", id, err)
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vaccinations[id]
	if !ok {
		return nil, notFoundError("get vaccination", id)
	}
	return &v, nil
}

func (r memoryVaccinationRepo) List(ctx context.Context, params ListParams) ([]domain.Vaccination, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, storeError("list vaccinations", "", err)
	}

	s := r.store
	s.mu.RLock()
	matched := make([]domain.Vaccination, 0, len(s.vaccinations))
	for _, v := range s.vaccinations {
		if params.matches(v) {
			matched = append(matched, v)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ScheduledDate.Equal(matched[j].ScheduledDate) {
			return matched[i].ScheduledDate.Before(matched[j].ScheduledDate)
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	page, pageSize := params.Pagination()
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.Vaccination{}, total, nil
	}
	end := min(start+pageSize, len(matched))

	return matched[start:end], total, nil
}

func (r memoryVaccinationRepo) MarkCompleted(ctx context.Context, id string) error {
	return r.update(ctx, "mark completed vaccination", id, func(v *domain.Vaccination) {
		v.Completed = true
	})
}

func (r memoryVaccinationRepo) MarkNotificationSent(ctx context.Context, id string) error {
	return r.update(ctx, "mark reminder sent for vaccination", id, func(v *domain.Vaccination) {
		v.NotificationSent = true
	})
}

func (r memoryVaccinationRepo) update(ctx context.Context, op string, id string, mutate func(v *domain.Vaccination)) error {
	if err := ctx.Err(); err != nil {
		return storeError(op, id, err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vaccinations[id]
	if !ok {
		return notFoundError(op, id)
	}
	mutate(&v)
	v.UpdatedAt = s.now().UTC()
	s.vaccinations[id] = v
	return nil
}

func (r memoryVaccinationRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storeError("delete stale vaccinations before", domain.FormatDate(cutoff), err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, v := range s.vaccinations {
		if domain.EligibleForCleanup(v, cutoff) {
			delete(s.vaccinations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r memoryVaccinationRepo) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storeError("count stale vaccinations before", domain.FormatDate(cutoff), err)
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, v := range s.vaccinations {
		if domain.EligibleForCleanup(v, cutoff) {
			count++
		}
	}
	return count, nil
}

func (p ListParams) matches(v domain.Vaccination) bool {
	if p.AnimalID != nil && v.AnimalID != *p.AnimalID {
		return false
	}
	if p.Completed != nil && v.Completed != *p.Completed {
		return false
	}
	if p.ScheduledFrom != nil && v.ScheduledDate.Before(domain.DateOf(*p.ScheduledFrom)) {
		return false
	}
	if p.ScheduledTo != nil && v.ScheduledDate.After(domain.DateOf(*p.ScheduledTo)) {
		return false
	}
	return true
}
