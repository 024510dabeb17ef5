package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNo builds the customer-facing order number: local timestamp
// followed by eight upper-case hex characters.
func NewOrderNo(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.Format("20060102150405") + strings.ToUpper(suffix)
}
