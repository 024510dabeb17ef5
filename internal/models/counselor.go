package models

import "time"

type CounselorProfile struct {
	UserID uint `gorm:"primaryKey" json:"user_id"`

	Name       string `gorm:"size:100" json:"name"`
	Title      string `gorm:"size:50" json:"title"`
	PriceCents int64  `json:"price_cents"`
	IsVerified bool   `gorm:"default:false" json:"is_verified"`
	Timezone   string `gorm:"size:64" json:"timezone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
