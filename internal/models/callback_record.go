package models

import "time"

// CallbackRecord is append-only; purging by age is the only removal.
type CallbackRecord struct {
	DedupKey          string `gorm:"primaryKey;size:200" json:"dedup_key"`
	ProviderReference string `gorm:"size:128;index" json:"provider_reference"`
	PayloadHash       string `gorm:"size:64" json:"payload_hash"`

	EventType string `gorm:"size:40" json:"event_type"`
	OrderNo   string `gorm:"size:64;index" json:"order_no"`
	Outcome   string `gorm:"size:40" json:"outcome"`
	AckCode   string `gorm:"size:20" json:"ack_code"`

	ProcessedAt time.Time `gorm:"index" json:"processed_at"`
}
