package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"go.uber.org/zap"
)

// LogProvider writes reminders to the structured log. It is the default
// provider for local runs and always reports success.
type LogProvider struct {
	logger *zap.Logger
}

func NewLogProvider(logger *zap.Logger) *LogProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogProvider{logger: logger}
}

func (p *LogProvider) Channel() string { return ChannelLog }

func (p *LogProvider) Send(ctx context.Context, reminder domain.Reminder) (*ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("send reminder: %w", err)
	}

	messageID := uuid.NewString()
	p.logger.Info("vaccination reminder",
		zap.String("messageId", messageID),
		zap.String("vaccinationId", reminder.VaccinationID),
		zap.String("animalId", reminder.AnimalID),
		zap.String("subject", reminder.Subject()),
		zap.String("text", reminder.Text()),
	)

	return &ProviderResponse{MessageID: messageID}, nil
}
