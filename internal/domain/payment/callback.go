package payment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/models"
)

type CallbackType string

const (
	ChargeSucceeded CallbackType = "charge.succeeded"
	ChargeFailed    CallbackType = "charge.failed"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)).
const SignatureHeader = "X-Signature"

type Callback struct {
	EventID           string       `json:"event_id"`
	Type              CallbackType `json:"type"`
	OrderNo           string       `json:"order_no"`
	ProviderReference string       `json:"provider_reference"`
	Amount            int64        `json:"amount"`
	PaidAt            time.Time    `json:"paid_at"`
	Reason            string       `json:"reason,omitempty"`
}

func ParseCallback(raw []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, fmt.Errorf("payment: decode callback: %w", httperr.ErrInvalidInput)
	}
	if cb.OrderNo == "" || cb.ProviderReference == "" {
		return nil, fmt.Errorf("payment: callback missing order_no or provider_reference: %w", httperr.ErrInvalidInput)
	}
	switch cb.Type {
	case ChargeSucceeded, ChargeFailed:
	default:
		return nil, fmt.Errorf("payment: unknown callback type %q: %w", cb.Type, httperr.ErrInvalidInput)
	}
	return &cb, nil
}

// DedupKey derives the stable redelivery key from the provider reference and
// a hash of the exact payload bytes.
func DedupKey(providerReference string, raw []byte) (key string, payloadHash string) {
	sum := blake2b.Sum256(raw)
	payloadHash = hex.EncodeToString(sum[:])
	return providerReference + ":" + payloadHash, payloadHash
}

// Ack is returned to the provider. Replays of a processed callback receive the
// same Ack as the first delivery.
type Ack struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var AckOK = Ack{Code: "SUCCESS", Message: "OK"}

type Verifier interface {
	Verify(payload []byte, signature string) error
}

type CallbackStore interface {
	GetCallback(ctx context.Context, dedupKey string) (*models.CallbackRecord, error)

	// InsertCallback returns false if the key already exists.
	InsertCallback(ctx context.Context, rec *models.CallbackRecord) (bool, error)

	PurgeCallbacksBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver keeps the raw payload for manual reconciliation.
type Archiver interface {
	Archive(ctx context.Context, key string, payload []byte) error
}
