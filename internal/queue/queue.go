package queue

import (
	"context"
)

// Publisher emits vaccination lifecycle events to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg EventMessage) error
	Close() error
}

const (
	// ExchangeName is the durable topic exchange carrying all lifecycle events.
	ExchangeName = "vaccination.events"
	// AuditQueueName receives a copy of every event for downstream consumers.
	AuditQueueName  = "vaccination.audit"
	auditBindingKey = "vaccination.#"
)

// EventType doubles as the routing key on ExchangeName.
type EventType string

const (
	EventVaccinationScheduled EventType = "vaccination.scheduled"
	EventVaccinationCompleted EventType = "vaccination.completed"
	EventReminderSent         EventType = "vaccination.reminder.sent"
	EventCleanupCompleted     EventType = "vaccination.cleanup.completed"
)

var supportedEvents = []EventType{
	EventVaccinationScheduled,
	EventVaccinationCompleted,
	EventReminderSent,
	EventCleanupCompleted,
}

func (t EventType) String() string { return string(t) }

func (t EventType) IsValid() bool {
	for _, supported := range supportedEvents {
		if t == supported {
			return true
		}
	}
	return false
}

// RoutingKey returns the topic routing key for an event type.
func RoutingKey(t EventType) string {
	return t.String()
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, EventMessage) error { return nil }

func (NopPublisher) Close() error { return nil }
