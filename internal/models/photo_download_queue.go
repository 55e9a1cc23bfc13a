package models

import (
	"time"
)

// PhotoDownloadQueue holds photo downloads that could not complete within the
// bounded wait of the parent operation. A background worker drains the queue
// so a slow photo host never fails or stalls an upsert.
type PhotoDownloadQueue struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerKind   string     `gorm:"type:varchar(20);not null;index:idx_photo_queue_owner" json:"owner_kind"` // listing, historical_sale
	OwnerKey    string     `gorm:"type:varchar(255);not null;index:idx_photo_queue_owner" json:"owner_key"` // MLS number or sale id
	PhotoURL    string     `gorm:"type:text;not null" json:"photo_url"`
	Position    int        `gorm:"not null;default:0" json:"position"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_photo_queue_status" json:"status"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	NextRetryAt *time.Time `gorm:"index" json:"next_retry_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (PhotoDownloadQueue) TableName() string {
	return "photo_download_queue"
}

// Queue status constants
const (
	PhotoQueuePending    = "pending"
	PhotoQueueProcessing = "processing"
	PhotoQueueDone       = "done"
	PhotoQueueFailed     = "failed"
)

// Owner kinds for queued photo downloads
const (
	PhotoOwnerListing = "listing"
	PhotoOwnerSale    = "historical_sale"
)

// MaxPhotoRetryAttempts before a queued download is marked failed
const MaxPhotoRetryAttempts = 5

// NextPhotoRetryDelay calculates the backoff delay for a retry attempt
func NextPhotoRetryDelay(attempts int) time.Duration {
	delays := []time.Duration{
		5 * time.Minute,
		15 * time.Minute,
		1 * time.Hour,
		4 * time.Hour,
		12 * time.Hour,
	}

	if attempts >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempts]
}
