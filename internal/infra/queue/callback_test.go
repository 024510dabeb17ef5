package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

func TestCallbackHandler(t *testing.T) {
	var gotRaw, gotSig string
	result := error(nil)
	fn := func(ctx context.Context, raw []byte, sig string) (payment.Ack, error) {
		gotRaw, gotSig = string(raw), sig
		return payment.AckOK, result
	}
	h := CallbackHandler(fn, logging.Discard())

	msg := kafka.Message{
		Value:   []byte(`{"order_no":"N1"}`),
		Headers: []kafka.Header{{Key: payment.SignatureHeader, Value: []byte("abc")}},
	}

	assert.NoError(t, h(context.Background(), msg))
	assert.Equal(t, `{"order_no":"N1"}`, gotRaw)
	assert.Equal(t, "abc", gotSig)

	result = httperr.ErrInvalidSignature
	assert.NoError(t, h(context.Background(), msg), "bad signatures are dropped")

	result = httperr.ErrInvalidInput
	assert.NoError(t, h(context.Background(), msg), "malformed payloads are dropped")

	boom := errors.New("db down")
	result = boom
	assert.ErrorIs(t, h(context.Background(), msg), boom)
}

func TestHeaderMissing(t *testing.T) {
	assert.Equal(t, "", Header(kafka.Message{}, payment.SignatureHeader))
}
