package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

const slotExclusion = `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'time_slots_no_overlap'
	) THEN
		ALTER TABLE time_slots
		ADD CONSTRAINT time_slots_no_overlap
		EXCLUDE USING gist (
			counselor_id WITH =,
			tstzrange(start_time, end_time, '[)') WITH &&
		) WHERE (hold_state IN ('held', 'confirmed'));
	END IF;
END $$;
`

func NewDB(cfg *config.Config, log *logging.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	res := db.Exec(`
        UPDATE counselor_profiles
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, cfg.DefaultTimezone)
	if res.Error != nil {
		log.Warn("backfill counselor timezone failed", "error", res.Error)
	}

	log.Info("database ready")
	return db, nil
}

// Migrate creates the tables. On postgres it also installs the exclusion
// constraint that keeps active slots of one counselor from overlapping.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.CounselorProfile{},
		&models.WorkingHours{},
		&models.TimeSlot{},
		&models.Appointment{},
		&models.Order{},
		&models.CallbackRecord{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("migrate: btree_gist: %w", err)
	}
	if err := db.Exec(slotExclusion).Error; err != nil {
		return fmt.Errorf("migrate: slot exclusion: %w", err)
	}
	return nil
}
