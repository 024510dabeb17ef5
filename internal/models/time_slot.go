package models

import "time"

// TimeSlot is one hold on a counselor's calendar. Rows are never deleted;
// a released hold keeps its row with HoldState "free".
type TimeSlot struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	CounselorID uint   `gorm:"index:idx_time_slots_counselor_range,priority:1" json:"counselor_id"`

	StartTime time.Time `gorm:"index:idx_time_slots_counselor_range,priority:2" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	HoldState     string     `gorm:"size:20;index" json:"hold_state"`
	HoldOwner     string     `gorm:"size:36;uniqueIndex" json:"hold_owner"`
	HoldExpiresAt *time.Time `gorm:"index" json:"hold_expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
