package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/vaccination-engine/internal/repository"
	"gorm.io/gorm"
)

// Cleanup scans only incomplete rows by date, so the partial index covers both
// the stale delete and the eligible count.
func createVaccinations() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_vaccinations",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.VaccinationModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`ALTER TABLE vaccinations ALTER COLUMN completed SET DEFAULT false`,
				`ALTER TABLE vaccinations ALTER COLUMN notification_sent SET DEFAULT false`,
				`ALTER TABLE vaccinations ADD CONSTRAINT fk_vaccinations_animal
					FOREIGN KEY (animal_id) REFERENCES animals (id) ON DELETE CASCADE`,
				`CREATE INDEX IF NOT EXISTS idx_vaccinations_animal_id ON vaccinations (animal_id)`,
				`CREATE INDEX IF NOT EXISTS idx_vaccinations_pending_scheduled ON vaccinations (scheduled_date) WHERE completed = false`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.VaccinationModel{})
		},
	}
}
