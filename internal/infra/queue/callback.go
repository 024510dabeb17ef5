package queue

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// CallbackFunc is the shape of reconcile.Reconciler.Handle.
type CallbackFunc func(ctx context.Context, raw []byte, signature string) (payment.Ack, error)

// Header returns the value of the named header, or "".
func Header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// CallbackHandler feeds relayed provider callbacks to fn. The relay copies
// the provider's signature into the X-Signature message header. Payloads that
// can never succeed are dropped so they do not block their lane; anything
// else is retried.
func CallbackHandler(fn CallbackFunc, log *logging.Logger) Handler {
	if log == nil {
		log = logging.Default()
	}
	return func(ctx context.Context, m kafka.Message) error {
		_, err := fn(ctx, m.Value, Header(m, payment.SignatureHeader))
		switch {
		case err == nil:
			return nil
		case httperr.IsBusiness(err, httperr.CodeInvalidSignature),
			httperr.IsBusiness(err, httperr.CodeInvalidInput):
			log.Warn("dropping relayed callback",
				"offset", m.Offset,
				"error", err,
			)
			return nil
		default:
			return err
		}
	}
}
