package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
)

// EventMessage is the broker payload for vaccination lifecycle events.
type EventMessage struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	CorrelationID string    `json:"correlationId,omitempty"`
	VaccinationID string    `json:"vaccinationId,omitempty"`
	AnimalID      string    `json:"animalId,omitempty"`
	VaccineName   string    `json:"vaccineName,omitempty"`
	ScheduledDate string    `json:"scheduledDate,omitempty"`
	Channel       string    `json:"channel,omitempty"`
	MessageID     string    `json:"messageId,omitempty"`
	DeletedCount  int64     `json:"deletedCount,omitempty"`
	Cutoff        string    `json:"cutoff,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func (m EventMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid event type %q", m.Type)
	}
	if m.OccurredAt.IsZero() {
		return fmt.Errorf("occurredAt is required")
	}
	if m.Type == EventCleanupCompleted {
		if strings.TrimSpace(m.Cutoff) == "" {
			return fmt.Errorf("cutoff is required for %s", m.Type)
		}
		return nil
	}
	if strings.TrimSpace(m.VaccinationID) == "" {
		return fmt.Errorf("vaccinationId is required for %s", m.Type)
	}
	return nil
}

// NewVaccinationEvent builds a per-record event.
func NewVaccinationEvent(t EventType, v domain.Vaccination, at time.Time) EventMessage {
	return EventMessage{
		ID:            uuid.NewString(),
		Type:          t,
		VaccinationID: v.ID,
		AnimalID:      v.AnimalID,
		VaccineName:   v.VaccineName,
		ScheduledDate: domain.FormatDate(v.ScheduledDate),
		OccurredAt:    at.UTC(),
	}
}

// NewCleanupEvent builds the summary event emitted after a cleanup run.
func NewCleanupEvent(cutoff time.Time, deleted int64, at time.Time) EventMessage {
	return EventMessage{
		ID:           uuid.NewString(),
		Type:         EventCleanupCompleted,
		DeletedCount: deleted,
		Cutoff:       domain.FormatDate(cutoff),
		OccurredAt:   at.UTC(),
	}
}
