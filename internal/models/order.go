package models

import "time"

type Order struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OrderNo string `gorm:"size:64;uniqueIndex;not null" json:"order_no"`

	UserID        uint   `gorm:"index" json:"user_id"`
	AppointmentID string `gorm:"size:36;uniqueIndex;not null" json:"appointment_id"`

	Amount        int64  `gorm:"not null" json:"amount"`
	PaymentMethod string `gorm:"size:20" json:"payment_method"`
	Status        string `gorm:"size:20;index;default:'pending'" json:"status"`

	ProviderReference string     `gorm:"size:128;index" json:"provider_reference,omitempty"`
	PaidAt            *time.Time `json:"paid_at"`
	RefundReference   string     `gorm:"size:128" json:"refund_reference,omitempty"`
	RefundedAt        *time.Time `json:"refunded_at"`
	VoidedAt          *time.Time `json:"voided_at"`

	NeedsReconciliation bool   `gorm:"index;default:false" json:"needs_reconciliation"`
	ReconcileNote       string `gorm:"size:255" json:"reconcile_note,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
