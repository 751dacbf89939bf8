package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
)

type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSProvider sends reminders as transactional SMS to the owner's phone.
type SNSProvider struct {
	client snsPublisher
}

func NewSNSProvider(client snsPublisher) (*SNSProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("sns client is required")
	}
	return &SNSProvider{client: client}, nil
}

func (p *SNSProvider) Channel() string { return ChannelSNS }

func (p *SNSProvider) Send(ctx context.Context, reminder domain.Reminder) (*ProviderResponse, error) {
	if reminder.OwnerPhone == "" {
		return nil, fmt.Errorf("%w: owner phone is required for sms reminders", domain.ErrValidation)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(reminder.OwnerPhone),
		Message:     aws.String(reminder.Text()),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return nil, &ProviderError{
			Message:   "sns publish failed",
			Transient: IsTransient(err),
			Cause:     err,
		}
	}

	return &ProviderResponse{MessageID: aws.ToString(out.MessageId)}, nil
}
