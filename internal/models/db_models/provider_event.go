package db_models

import (
	"gorm.io/datatypes"
)

type EventRecordStatus string

const (
	EventStatusReceived  EventRecordStatus = "received"
	EventStatusProcessed EventRecordStatus = "processed"
	EventStatusIgnored   EventRecordStatus = "ignored"
	EventStatusFailed    EventRecordStatus = "failed"
)

// ProviderEventRecord journals every verified webhook delivery. The unique
// provider event id makes duplicate deliveries detectable before any store
// call happens; failed rows are the audit trail for deliveries that were
// acknowledged with 200 but did not finish processing.
type ProviderEventRecord struct {
	BaseModel
	ProviderEventID string            `gorm:"uniqueIndex;size:255"`
	EventType       string            `gorm:"index;size:64"`
	Status          EventRecordStatus `gorm:"index;size:16"`
	Attempts        int
	LastError       string

	// Raw provider payload, kept for investigation and replay.
	RawPayload datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
