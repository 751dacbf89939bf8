package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/provider"
	"github.com/kursadbilgin/vaccination-engine/internal/queue"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// day returns 09:00 UTC on the given YYYY-MM-DD date.
func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(value)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", value, err)
	}
	return d.Add(9 * time.Hour)
}

type fixture struct {
	clock        *testClock
	store        *repository.MemoryStore
	publisher    *fakePublisher
	vaccinations *VaccinationService
	animals      *AnimalService
	cleanup      *CleanupJob
}

func newFixture(t *testing.T, today string, extra ...Option) *fixture {
	t.Helper()

	f := &fixture{
		clock:     newTestClock(day(t, today)),
		store:     repository.NewMemoryStore(),
		publisher: &fakePublisher{},
	}
	opts := append([]Option{WithClock(f.clock.Now), WithPublisher(f.publisher)}, extra...)

	var err error
	if f.vaccinations, err = NewVaccinationService(f.store.Vaccinations(), f.store.Animals(), opts...); err != nil {
		t.Fatalf("NewVaccinationService() error = %v", err)
	}
	if f.animals, err = NewAnimalService(f.store.Animals(), opts...); err != nil {
		t.Fatalf("NewAnimalService() error = %v", err)
	}
	if f.cleanup, err = NewCleanupJob(f.store.Vaccinations(), domain.RetentionWindowDays, opts...); err != nil {
		t.Fatalf("NewCleanupJob() error = %v", err)
	}
	return f
}

func (f *fixture) registerAnimal(t *testing.T) *domain.Animal {
	t.Helper()
	a, err := f.animals.Register(context.Background(), RegisterAnimalInput{
		Name:       "Rex",
		Species:    "dog",
		OwnerName:  "Dana",
		OwnerPhone: "+905551112233",
		OwnerEmail: "dana@example.com",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return a
}

// scheduleOn moves the clock to date, schedules a vaccination for that same date, and returns it.
func (f *fixture) scheduleOn(t *testing.T, animalID string, date string) *ClassifiedVaccination {
	t.Helper()
	f.clock.Set(day(t, date))
	v, err := f.vaccinations.Schedule(context.Background(), ScheduleInput{
		AnimalID:      animalID,
		VaccineName:   "Rabies",
		ScheduledDate: day(t, date),
	})
	if err != nil {
		t.Fatalf("Schedule(%s) error = %v", date, err)
	}
	return v
}

type fakePublisher struct {
	mu        sync.Mutex
	events    []queue.EventMessage
	publishFn func(ctx context.Context, msg queue.EventMessage) error
}

func (f *fakePublisher) Publish(ctx context.Context, msg queue.EventMessage) error {
	f.mu.Lock()
	f.events = append(f.events, msg)
	f.mu.Unlock()
	if f.publishFn != nil {
		return f.publishFn(ctx, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// blockUntilDone mimics a broker client that keeps redialing until its
// context ends.
func blockUntilDone(ctx context.Context, _ queue.EventMessage) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakePublisher) types() []queue.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]queue.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeVaccinationRepo struct {
	repository.VaccinationRepository
	deleteStaleFn func(ctx context.Context, cutoff time.Time) (int64, error)
	countStaleFn  func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeVaccinationRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.deleteStaleFn(ctx, cutoff)
}

func (f *fakeVaccinationRepo) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.countStaleFn(ctx, cutoff)
}

type fakeProvider struct {
	mu     sync.Mutex
	calls  []domain.Reminder
	sendFn func(ctx context.Context, r domain.Reminder) (*provider.ProviderResponse, error)
}

func (f *fakeProvider) Channel() string { return "fake" }

func (f *fakeProvider) Send(ctx context.Context, r domain.Reminder) (*provider.ProviderResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, r)
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(ctx, r)
	}
	return &provider.ProviderResponse{MessageID: "msg-1"}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, channel string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, channel string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, channel)
	}
	return nil
}
