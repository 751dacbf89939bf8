package repository

import (
	"time"

	"github.com/kursadbilgin/vaccination-engine/internal/domain"
)

// VaccinationModel is the persistence model for the vaccinations table.
type VaccinationModel struct {
	ID               string    `gorm:"type:uuid;primaryKey"`
	AnimalID         string    `gorm:"type:uuid;not null"`
	VaccineName      string    `gorm:"type:varchar(255);not null"`
	ScheduledDate    time.Time `gorm:"type:date;not null"`
	Completed        bool      `gorm:"not null"`
	NotificationSent bool      `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (VaccinationModel) TableName() string {
	return "vaccinations"
}

// AnimalModel is the persistence model for the animals table.
type AnimalModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Name       string `gorm:"type:varchar(255);not null"`
	Species    string `gorm:"type:varchar(100)"`
	OwnerName  string `gorm:"type:varchar(255)"`
	OwnerPhone string `gorm:"type:varchar(32)"`
	OwnerEmail string `gorm:"type:varchar(255)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AnimalModel) TableName() string {
	return "animals"
}

func vaccinationModelFromDomain(v *domain.Vaccination) *VaccinationModel {
	if v == nil {
		return nil
	}

	return &VaccinationModel{
		ID:               v.ID,
		AnimalID:         v.AnimalID,
		VaccineName:      v.VaccineName,
		ScheduledDate:    domain.DateOf(v.ScheduledDate),
		Completed:        v.Completed,
		NotificationSent: v.NotificationSent,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

func vaccinationModelToDomain(m *VaccinationModel) *domain.Vaccination {
	if m == nil {
		return nil
	}

	return &domain.Vaccination{
		ID:               m.ID,
		AnimalID:         m.AnimalID,
		VaccineName:      m.VaccineName,
		ScheduledDate:    domain.DateOf(m.ScheduledDate),
		Completed:        m.Completed,
		NotificationSent: m.NotificationSent,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func animalModelFromDomain(a *domain.Animal) *AnimalModel {
	if a == nil {
		return nil
	}

	return &AnimalModel{
		ID:         a.ID,
		Name:       a.Name,
		Species:    a.Species,
		OwnerName:  a.OwnerName,
		OwnerPhone: a.OwnerPhone,
		OwnerEmail: a.OwnerEmail,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func animalModelToDomain(m *AnimalModel) *domain.Animal {
	if m == nil {
		return nil
	}

	return &domain.Animal{
		ID:         m.ID,
		Name:       m.Name,
		Species:    m.Species,
		OwnerName:  m.OwnerName,
		OwnerPhone: m.OwnerPhone,
		OwnerEmail: m.OwnerEmail,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
