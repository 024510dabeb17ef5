package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

func TestMigrateSQLite(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(gdb))

	for _, m := range []any{
		&models.TimeSlot{},
		&models.Appointment{},
		&models.Order{},
		&models.CallbackRecord{},
		&models.CounselorProfile{},
	} {
		assert.True(t, gdb.Migrator().HasTable(m))
	}
	assert.True(t, gdb.Migrator().HasIndex(&models.Order{}, "idx_orders_appointment_id"))
}
