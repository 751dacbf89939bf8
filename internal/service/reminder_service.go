package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/provider"
	"github.com/kursadbilgin/vaccination-engine/internal/queue"
	"github.com/kursadbilgin/vaccination-engine/internal/ratelimit"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"go.uber.org/zap"
)

type ReminderResult struct {
	VaccinationID string
	Channel       string
	MessageID     string
	SentAt        time.Time
}

// ReminderService dispatches owner reminders through a single provider.
// Each call makes at most one delivery attempt.
type ReminderService struct {
	vaccinations repository.VaccinationRepository
	animals      repository.AnimalRepository
	provider     provider.Provider
	rateLimiter  ratelimit.RateLimiter
	options
}

func NewReminderService(
	vaccinations repository.VaccinationRepository,
	animals repository.AnimalRepository,
	reminderProvider provider.Provider,
	rateLimiter ratelimit.RateLimiter,
	opts ...Option,
) (*ReminderService, error) {
	if vaccinations == nil {
		return nil, fmt.Errorf("vaccination repository is required")
	}
	if animals == nil {
		return nil, fmt.Errorf("animal repository is required")
	}
	if reminderProvider == nil {
		return nil, fmt.Errorf("reminder provider is required")
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Unlimited{}
	}

	return &ReminderService{
		vaccinations: vaccinations,
		animals:      animals,
		provider:     reminderProvider,
		rateLimiter:  rateLimiter,
		options:      newOptions(opts),
	}, nil
}

func (s *ReminderService) SendReminder(ctx context.Context, vaccinationID string) (*ReminderResult, error) {
	const op = "send reminder for vaccination"

	vaccinationID = strings.TrimSpace(vaccinationID)
	if vaccinationID == "" {
		return nil, fmt.Errorf("%w: vaccination id is required", domain.ErrValidation)
	}

	v, a, err := s.load(ctx, vaccinationID)
	if err != nil {
		return nil, err
	}

	channel := s.provider.Channel()
	logger := s.loggerFor(ctx).With(
		zap.String("vaccinationId", v.ID),
		zap.String("channel", channel),
	)

	if err := s.rateLimiter.Wait(ctx, channel); err != nil {
		s.metrics.IncReminderFailed(channel, "rate_limited")
		return nil, &domain.OperationError{Op: op, ID: v.ID, Kind: domain.ErrDelivery, Err: err}
	}

	start := time.Now()
	response, err := s.provider.Send(ctx, domain.NewReminder(*v, *a))
	s.metrics.ObserveReminderSendDuration(channel, time.Since(start))
	if err != nil {
		reason := provider.FailureReason(err)
		s.metrics.IncReminderFailed(channel, reason)
		logger.Warn("reminder delivery failed",
			zap.String("reason", reason),
			zap.Bool("transient", provider.IsTransient(err)),
			zap.Error(err),
		)
		return nil, &domain.OperationError{Op: op, ID: v.ID, Kind: domain.ErrDelivery, Err: err}
	}

	sentAt := s.now().UTC()
	s.metrics.IncReminderSent(channel)

	result := &ReminderResult{
		VaccinationID: v.ID,
		Channel:       channel,
		SentAt:        sentAt,
	}
	if response != nil {
		result.MessageID = response.MessageID
	}

	// the flag is advisory, so a failed write does not fail a delivered reminder
	storeCtx, cancel := s.storeCtx(ctx)
	err = s.vaccinations.MarkNotificationSent(storeCtx, v.ID)
	cancel()
	if err != nil {
		logger.Error("failed to record reminder as sent", zap.Error(err))
	}

	logger.Info("reminder sent", zap.String("messageId", result.MessageID))

	event := queue.NewVaccinationEvent(queue.EventReminderSent, *v, sentAt)
	event.Channel = channel
	event.MessageID = result.MessageID
	s.publish(ctx, event)

	return result, nil
}

func (s *ReminderService) load(ctx context.Context, vaccinationID string) (*domain.Vaccination, *domain.Animal, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	v, err := s.vaccinations.GetByID(storeCtx, vaccinationID)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.animals.GetByID(storeCtx, v.AnimalID)
	if err != nil {
		return nil, nil, err
	}
	return v, a, nil
}
