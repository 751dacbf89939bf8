package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the display classification derived from a vaccination's date and completion flag.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusToday     Status = "today"
	StatusUpcoming  Status = "upcoming"
	StatusOverdue   Status = "overdue"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusToday, StatusUpcoming, StatusOverdue:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// StatusCriteria is the store-side predicate matching a status on a given day.
// Nil bounds are open; bounds are inclusive calendar dates.
type StatusCriteria struct {
	Completed     bool
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
}

func (s Status) Criteria(today time.Time) StatusCriteria {
	day := DateOf(today)

	switch s {
	case StatusCompleted:
		return StatusCriteria{Completed: true}
	case StatusToday:
		return StatusCriteria{ScheduledFrom: &day, ScheduledTo: &day}
	case StatusOverdue:
		yesterday := day.AddDate(0, 0, -1)
		return StatusCriteria{ScheduledTo: &yesterday}
	case StatusUpcoming:
		tomorrow := day.AddDate(0, 0, 1)
		return StatusCriteria{ScheduledFrom: &tomorrow}
	}
	return StatusCriteria{}
}

const MaxVaccineNameLength = 255

// Vaccination is a scheduled or administered vaccine event for one animal.
type Vaccination struct {
	ID               string    `gorm:"type:uuid;primaryKey"`
	AnimalID         string    `gorm:"type:uuid;not null"`
	VaccineName      string    `gorm:"type:varchar(255);not null"`
	ScheduledDate    time.Time `gorm:"type:date;not null"`
	Completed        bool      `gorm:"not null;default:false"`
	NotificationSent bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (v *Vaccination) Validate() error {
	if strings.TrimSpace(v.AnimalID) == "" {
		return fmt.Errorf("%w: animalId is required", ErrValidation)
	}
	name := strings.TrimSpace(v.VaccineName)
	if name == "" {
		return fmt.Errorf("%w: vaccineName is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxVaccineNameLength {
		return fmt.Errorf("%w: vaccineName exceeds %d characters", ErrValidation, MaxVaccineNameLength)
	}
	if v.ScheduledDate.IsZero() {
		return fmt.Errorf("%w: scheduledDate is required", ErrValidation)
	}
	return nil
}

// Classify labels a vaccination relative to today. The completed flag always
// wins; otherwise only the calendar dates are compared.
func Classify(v Vaccination, today time.Time) Status {
	if v.Completed {
		return StatusCompleted
	}

	scheduled := DateOf(v.ScheduledDate)
	day := DateOf(today)

	switch {
	case scheduled.Equal(day):
		return StatusToday
	case scheduled.Before(day):
		return StatusOverdue
	default:
		return StatusUpcoming
	}
}
