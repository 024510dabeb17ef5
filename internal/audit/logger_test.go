package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type captureStore struct {
	rows []models.AuditLog
}

func (c *captureStore) WriteAudit(ctx context.Context, row *models.AuditLog) error {
	c.rows = append(c.rows, *row)
	return nil
}

func TestLogEncodesMetadata(t *testing.T) {
	store := &captureStore{}
	l := NewWithStore(store)

	err := l.Log(context.Background(), "system", "appointment_cancelled", "appointment", "ap-1",
		map[string]string{"reason": "hold_expired"})
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	assert.Equal(t, "system", store.rows[0].Actor)
	assert.Equal(t, "ap-1", store.rows[0].EntityID)
	assert.JSONEq(t, `{"reason":"hold_expired"}`, store.rows[0].Metadata)
}
