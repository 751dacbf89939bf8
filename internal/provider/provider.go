package provider

import (
	"context"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
)

// Channel names accepted by the reminder provider factory.
const (
	ChannelLog     = "log"
	ChannelWebhook = "webhook"
	ChannelSNS     = "sns"
	ChannelSES     = "ses"
)

// Provider is the outbound reminder delivery port. Implementations make
// exactly one delivery attempt per Send call.
type Provider interface {
	Channel() string
	Send(ctx context.Context, reminder domain.Reminder) (*ProviderResponse, error)
}

// ProviderResponse stores provider call metadata for logging and audit events.
type ProviderResponse struct {
	StatusCode int
	Body       string
	MessageID  string
}
