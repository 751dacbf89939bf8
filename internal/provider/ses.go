package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
)

type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESProvider sends reminders by email to the owner.
type SESProvider struct {
	client sesSender
	from   string
}

func NewSESProvider(client sesSender, from string) (*SESProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("ses client is required")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, fmt.Errorf("ses sender address is required")
	}
	return &SESProvider{client: client, from: from}, nil
}

func (p *SESProvider) Channel() string { return ChannelSES }

func (p *SESProvider) Send(ctx context.Context, reminder domain.Reminder) (*ProviderResponse, error) {
	if reminder.OwnerEmail == "" {
		return nil, fmt.Errorf("%w: owner email is required for email reminders", domain.ErrValidation)
	}

	out, err := p.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(p.from),
		Destination: &types.Destination{
			ToAddresses: []string{reminder.OwnerEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(reminder.Subject())},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(reminder.Text())},
			},
		},
	})
	if err != nil {
		return nil, &ProviderError{
			Message:   "ses send failed",
			Transient: IsTransient(err),
			Cause:     err,
		}
	}

	return &ProviderResponse{MessageID: aws.ToString(out.MessageId)}, nil
}
