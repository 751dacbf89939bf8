package provider

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// Settings selects and configures the reminder provider.
type Settings struct {
	Channel    string
	WebhookURL string
	FromEmail  string
	AWSRegion  string
}

// New builds the provider named by settings.Channel.
func New(ctx context.Context, settings Settings, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Channel)) {
	case "", ChannelLog:
		return NewLogProvider(logger), nil
	case ChannelWebhook:
		return NewWebhookProvider(settings.WebhookURL)
	case ChannelSNS:
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(settings.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewSNSProvider(sns.NewFromConfig(cfg))
	case ChannelSES:
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(settings.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewSESProvider(ses.NewFromConfig(cfg), settings.FromEmail)
	default:
		return nil, fmt.Errorf("unsupported reminder provider %q", settings.Channel)
	}
}
