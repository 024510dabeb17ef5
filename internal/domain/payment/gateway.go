// Package payment defines the contract with the external payment provider:
// outbound charges and refunds, and the inbound callback envelope.
package payment

import "context"

type ChargeRequest struct {
	OrderID string
	OrderNo string
	Amount  int64
	Method  string
}

// Gateway is the external payment provider. Implementations return
// httperr.ErrGatewayUnavailable for transient failures and
// httperr.ErrInvalidAmount for rejected amounts.
type Gateway interface {
	InitiateCharge(ctx context.Context, req ChargeRequest) (providerReference string, err error)
	Refund(ctx context.Context, providerReference string, amount int64) (refundReference string, err error)
}
