package models

import "time"

type Appointment struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	UserID      uint `gorm:"index" json:"user_id"`
	CounselorID uint `gorm:"index" json:"counselor_id"`

	ScheduledTime time.Time `gorm:"index" json:"scheduled_time"`
	Duration      int       `json:"duration"`
	EndTime       time.Time `gorm:"index" json:"end_time"`

	Status string `gorm:"size:20;index;default:'pending'" json:"status"`
	Amount int64  `json:"amount"`
	Notes  string `gorm:"type:text" json:"notes"`

	ConfirmedAt  *time.Time `json:"confirmed_at"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CancelReason string     `gorm:"size:50" json:"cancel_reason,omitempty"`
	CancelledBy  string     `gorm:"size:50" json:"cancelled_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
