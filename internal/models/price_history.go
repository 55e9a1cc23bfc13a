package models

import "time"

// PriceEventType classifies a price history entry
type PriceEventType string

const (
	PriceEventInitial  PriceEventType = "Initial"
	PriceEventChange   PriceEventType = "Price Change"
	PriceEventDrop     PriceEventType = "Price Drop"
	PriceEventIncrease PriceEventType = "Price Increase"
	PriceEventSold     PriceEventType = "Sold"
)

// PriceHistoryEntry is an append-only price observation for a listing.
// At most one entry exists per (listing, recorded date, price); entries are
// never mutated and are removed only by cascading listing deletion.
type PriceHistoryEntry struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID    uint           `gorm:"not null;index:idx_price_listing_date" json:"listing_id"`
	Price        float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	RecordedDate time.Time      `gorm:"type:date;not null;index:idx_price_listing_date,priority:2" json:"recorded_date"`
	EventType    PriceEventType `gorm:"type:varchar(20);not null;default:'Price Change'" json:"event_type"`
	Notes        string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for PriceHistoryEntry
func (PriceHistoryEntry) TableName() string {
	return "price_history"
}

// TrackingEvent is an append-only audit log row recorded for every listing
// mutation (discover, update, status change).
type TrackingEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	EventType string    `gorm:"type:varchar(50);not null" json:"event_type"`
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for TrackingEvent
func (TrackingEvent) TableName() string {
	return "tracking_event"
}

// TrackingEvent types
const (
	EventDiscovered   = "Discovered"
	EventUpdated      = "Updated"
	EventStatusChange = "StatusChange"
)
