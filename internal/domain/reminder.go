package domain

import (
	"fmt"
	"strings"
	"time"
)

// Reminder is the outbound message for a single vaccination.
type Reminder struct {
	VaccinationID string
	AnimalID      string
	AnimalName    string
	VaccineName   string
	ScheduledDate time.Time
	OwnerName     string
	OwnerPhone    string
	OwnerEmail    string
}

func NewReminder(v Vaccination, a Animal) Reminder {
	return Reminder{
		VaccinationID: v.ID,
		AnimalID:      v.AnimalID,
		AnimalName:    strings.TrimSpace(a.Name),
		VaccineName:   strings.TrimSpace(v.VaccineName),
		ScheduledDate: DateOf(v.ScheduledDate),
		OwnerName:     strings.TrimSpace(a.OwnerName),
		OwnerPhone:    strings.TrimSpace(a.OwnerPhone),
		OwnerEmail:    strings.TrimSpace(a.OwnerEmail),
	}
}

func (r Reminder) Subject() string {
	return fmt.Sprintf("Vaccination reminder for %s", r.animalLabel())
}

func (r Reminder) Text() string {
	greeting := "Hello"
	if r.OwnerName != "" {
		greeting = "Hello " + r.OwnerName
	}
	return fmt.Sprintf("%s, %s is due for the %s vaccination on %s.",
		greeting, r.animalLabel(), r.VaccineName, FormatDate(r.ScheduledDate))
}

func (r Reminder) animalLabel() string {
	if r.AnimalName == "" {
		return "your pet"
	}
	return r.AnimalName
}
