package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"github.com/kursadbilgin/vaccination-engine/internal/service"
)

func TestCleanupIntegration_RunAgainstMemoryStore(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := repository.NewMemoryStore()
	animals, err := service.NewAnimalService(store.Animals(), service.WithClock(clock))
	if err != nil {
		t.Fatalf("NewAnimalService() error = %v", err)
	}
	vaccinations, err := service.NewVaccinationService(store.Vaccinations(), store.Animals(), service.WithClock(clock))
	if err != nil {
		t.Fatalf("NewVaccinationService() error = %v", err)
	}
	job, err := service.NewCleanupJob(store.Vaccinations(), domain.RetentionWindowDays, service.WithClock(clock))
	if err != nil {
		t.Fatalf("NewCleanupJob() error = %v", err)
	}

	app := newTestApp()
	if err := RegisterAnimalRoutes(app, animals); err != nil {
		t.Fatalf("RegisterAnimalRoutes() error = %v", err)
	}
	if err := RegisterCleanupRoutes(app, job); err != nil {
		t.Fatalf("RegisterCleanupRoutes() error = %v", err)
	}

	resp, body := performRequest(t, app, http.MethodPost, "/v1/animals", `{"name":"Rex","species":"dog","ownerName":"Dana"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", resp.StatusCode, string(body))
	}
	var animal animalResponse
	if err := json.Unmarshal(body, &animal); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}

	if _, err := vaccinations.Schedule(context.Background(), service.ScheduleInput{
		AnimalID:      animal.ID,
		VaccineName:   "Rabies",
		ScheduledDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	now = time.Date(2024, 6, 23, 3, 0, 0, 0, time.UTC)

	resp, body = performRequest(t, app, http.MethodGet, "/v1/cleanup/eligible", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}
	var eligible eligibleResponse
	if err := json.Unmarshal(body, &eligible); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if eligible.EligibleCount != 1 || eligible.Cutoff != "2024-06-21" {
		t.Fatalf("eligible = %+v, want 1 before 2024-06-21", eligible)
	}

	for i, want := range []int64{1, 0} {
		resp, body = performRequest(t, app, http.MethodPost, "/v1/cleanup", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("run %d: status = %d, want 200, body=%s", i+1, resp.StatusCode, string(body))
		}
		var result cleanupResponse
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("json unmarshal error = %v", err)
		}
		if result.DeletedCount != want {
			t.Fatalf("run %d: deletedCount = %d, want %d", i+1, result.DeletedCount, want)
		}
	}
}

func TestCleanupIntegration_StoreFailure(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	if err := RegisterCleanupRoutes(app, &stubCleanupService{
		runFn: func(ctx context.Context) (*service.CleanupResult, error) {
			return nil, &domain.OperationError{Op: "cleanup vaccinations before", Kind: domain.ErrStore, Err: errors.New("connection refused")}
		},
	}); err != nil {
		t.Fatalf("RegisterCleanupRoutes() error = %v", err)
	}

	resp, body := performRequest(t, app, http.MethodPost, "/v1/cleanup", "")
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body=%s", resp.StatusCode, string(body))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if _, ok := parsed["deletedCount"]; ok {
		t.Fatal("failed run must not report a deleted count")
	}
}

type stubCleanupService struct {
	runFn   func(ctx context.Context) (*service.CleanupResult, error)
	countFn func(ctx context.Context) (*service.EligibleResult, error)
}

func (s *stubCleanupService) RunNow(ctx context.Context) (*service.CleanupResult, error) {
	if s.runFn != nil {
		return s.runFn(ctx)
	}
	return &service.CleanupResult{}, nil
}

func (s *stubCleanupService) CountEligibleNow(ctx context.Context) (*service.EligibleResult, error) {
	if s.countFn != nil {
		return s.countFn(ctx)
	}
	return &service.EligibleResult{}, nil
}
