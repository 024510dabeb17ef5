package audit

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

// Store persists audit rows.
type Store interface {
	WriteAudit(ctx context.Context, row *models.AuditLog) error
}

type gormStore struct {
	db *gorm.DB
}

func (s gormStore) WriteAudit(ctx context.Context, row *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(row).Error
}

type Logger struct {
	store Store
}

func New(db *gorm.DB) *Logger {
	return &Logger{store: gormStore{db: db}}
}

func NewWithStore(store Store) *Logger {
	return &Logger{store: store}
}

func (l *Logger) Log(
	ctx context.Context,
	actor string,
	action string,
	entity string,
	entityID string,
	metadata any,
) error {

	var metaJSON string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metaJSON = string(b)
		}
	}

	row := models.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Metadata: metaJSON,
	}

	return l.store.WriteAudit(ctx, &row)
}
