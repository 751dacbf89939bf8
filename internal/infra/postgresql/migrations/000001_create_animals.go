package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"gorm.io/gorm"
)

func createAnimals() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_animals",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.AnimalModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.AnimalModel{})
		},
	}
}
