package order

import "github.com/BruksfildServices01/counselor-scheduler/internal/httperr"

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusRefunded Status = "refunded"
	StatusVoided   Status = "voided"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:  {StatusPaid: true, StatusVoided: true},
	StatusPaid:     {StatusRefunded: true},
	StatusRefunded: {},
	StatusVoided:   {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Transition returns ErrInvalidTransition when from→to is not allowed.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return httperr.ErrInvalidTransition
	}
	return nil
}

type PaymentMethod string

const (
	MethodWechat PaymentMethod = "wechat"
	MethodAlipay PaymentMethod = "alipay"
)

func ParseMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case "":
		return MethodWechat, nil
	case MethodWechat, MethodAlipay:
		return PaymentMethod(s), nil
	}
	return "", httperr.ErrInvalidInput
}
