package httperr

import "errors"

// BusinessError carries a stable, client-visible error code.
type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// Code returns the business code carried by err, or "" for infrastructure errors.
func Code(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

const (
	CodeSlotUnavailable      = "slot_unavailable"
	CodeInvalidTransition    = "invalid_transition"
	CodeDuplicateOrder       = "duplicate_order"
	CodeHoldNotFound         = "hold_not_found"
	CodeInvalidSignature     = "invalid_signature"
	CodeGatewayUnavailable   = "gateway_unavailable"
	CodeInvalidAmount        = "invalid_amount"
	CodeNotFound             = "not_found"
	CodeForbidden            = "forbidden"
	CodeInvalidInput         = "invalid_input"
	CodeTooLate              = "too_late"
	CodeOutsideAvailability  = "outside_availability"
	CodeCounselorUnavailable = "counselor_unavailable"
	CodeLockTimeout          = "lock_timeout"
)

var (
	ErrSlotUnavailable      = ErrBusiness(CodeSlotUnavailable)
	ErrInvalidTransition    = ErrBusiness(CodeInvalidTransition)
	ErrDuplicateOrder       = ErrBusiness(CodeDuplicateOrder)
	ErrHoldNotFound         = ErrBusiness(CodeHoldNotFound)
	ErrInvalidSignature     = ErrBusiness(CodeInvalidSignature)
	ErrGatewayUnavailable   = ErrBusiness(CodeGatewayUnavailable)
	ErrInvalidAmount        = ErrBusiness(CodeInvalidAmount)
	ErrNotFound             = ErrBusiness(CodeNotFound)
	ErrForbidden            = ErrBusiness(CodeForbidden)
	ErrInvalidInput         = ErrBusiness(CodeInvalidInput)
	ErrTooLate              = ErrBusiness(CodeTooLate)
	ErrOutsideAvailability  = ErrBusiness(CodeOutsideAvailability)
	ErrCounselorUnavailable = ErrBusiness(CodeCounselorUnavailable)
	ErrLockTimeout          = ErrBusiness(CodeLockTimeout)
)
