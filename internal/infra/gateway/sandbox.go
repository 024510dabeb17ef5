package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/counselor-scheduler/internal/clock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
)

type charge struct {
	orderNo string
	amount  int64
}

type Refund struct {
	ProviderReference string
	RefundReference   string
	Amount            int64
}

// Sandbox is an in-process provider. It accepts every charge, signs the
// callbacks it produces and can be told to fail upcoming calls.
type Sandbox struct {
	mu       sync.Mutex
	signer   *HMACVerifier
	clock    clock.Clock
	charges  map[string]charge
	byOrder  map[string]string
	refunds  []Refund
	failNext map[string]int
}

func NewSandbox(signer *HMACVerifier, clk clock.Clock) *Sandbox {
	return &Sandbox{
		signer:   signer,
		clock:    clk,
		charges:  make(map[string]charge),
		byOrder:  make(map[string]string),
		failNext: make(map[string]int),
	}
}

// FailNext makes the next n calls of op ("charge" or "refund") return
// GatewayUnavailable.
func (s *Sandbox) FailNext(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = n
}

func (s *Sandbox) failing(op string) bool {
	if s.failNext[op] > 0 {
		s.failNext[op]--
		return true
	}
	return false
}

func (s *Sandbox) InitiateCharge(ctx context.Context, req payment.ChargeRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing("charge") {
		return "", httperr.ErrGatewayUnavailable
	}
	if req.Amount <= 0 {
		return "", httperr.ErrInvalidAmount
	}
	if ref, ok := s.byOrder[req.OrderNo]; ok {
		return ref, nil
	}

	ref := "sbx_ch_" + uuid.NewString()
	s.charges[ref] = charge{orderNo: req.OrderNo, amount: req.Amount}
	s.byOrder[req.OrderNo] = ref
	return ref, nil
}

func (s *Sandbox) Refund(ctx context.Context, providerReference string, amount int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing("refund") {
		return "", httperr.ErrGatewayUnavailable
	}
	ch, ok := s.charges[providerReference]
	if !ok {
		return "", httperr.ErrNotFound
	}
	if amount <= 0 || amount > ch.amount {
		return "", httperr.ErrInvalidAmount
	}

	ref := "sbx_rf_" + uuid.NewString()
	s.refunds = append(s.refunds, Refund{
		ProviderReference: providerReference,
		RefundReference:   ref,
		Amount:            amount,
	})
	return ref, nil
}

func (s *Sandbox) Refunds() []Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Refund(nil), s.refunds...)
}

// ChargeFor returns the reference of the charge opened for orderNo.
func (s *Sandbox) ChargeFor(orderNo string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.byOrder[orderNo]
	return ref, ok
}

// Callback builds a signed provider callback for a charge opened through this
// sandbox. Each call gets a fresh event id, so two calls are two deliveries
// with different payloads.
func (s *Sandbox) Callback(typ payment.CallbackType, orderNo string, amount int64, reason string) ([]byte, string, error) {
	ref, ok := s.ChargeFor(orderNo)
	if !ok {
		return nil, "", httperr.ErrNotFound
	}

	cb := payment.Callback{
		EventID:           "evt_" + uuid.NewString(),
		Type:              typ,
		OrderNo:           orderNo,
		ProviderReference: ref,
		Amount:            amount,
		PaidAt:            s.clock.Now(),
		Reason:            reason,
	}
	body, err := json.Marshal(cb)
	if err != nil {
		return nil, "", err
	}
	return body, s.signer.Sign(body), nil
}
