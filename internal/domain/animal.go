package domain

import (
	"fmt"
	"strings"
	"time"
)

// Animal is the patient a vaccination belongs to. Only the fields reminders need are kept.
type Animal struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Name       string `gorm:"type:varchar(255);not null"`
	Species    string `gorm:"type:varchar(100)"`
	OwnerName  string `gorm:"type:varchar(255)"`
	OwnerPhone string `gorm:"type:varchar(32)"`
	OwnerEmail string `gorm:"type:varchar(255)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *Animal) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if email := strings.TrimSpace(a.OwnerEmail); email != "" && !strings.Contains(email, "@") {
		return fmt.Errorf("%w: ownerEmail %q is not an email address", ErrValidation, email)
	}
	if phone := strings.TrimSpace(a.OwnerPhone); phone != "" && !strings.HasPrefix(phone, "+") {
		return fmt.Errorf("%w: ownerPhone must be in E.164 format", ErrValidation)
	}
	return nil
}
