package models

import "time"

// ListingStatus is the listing status string. The status domain is open: any
// value is accepted, but three are recognized as terminal.
type ListingStatus string

const (
	StatusActive    ListingStatus = "Active"
	StatusSold      ListingStatus = "Sold"
	StatusExpired   ListingStatus = "Expired"
	StatusCancelled ListingStatus = "Cancelled"
)

// IsTerminal reports whether the status implies the listing is no longer active.
func (s ListingStatus) IsTerminal() bool {
	switch s {
	case StatusSold, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Listing represents a tracked real-estate listing, addressed by MLS number.
type Listing struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	MLSNumber  *string `gorm:"column:mls_number;type:varchar(50);uniqueIndex" json:"mls_number,omitempty"`
	BuildingID *uint   `gorm:"index" json:"building_id,omitempty"`

	UnitNumber   string        `gorm:"type:varchar(20)" json:"unit_number,omitempty"`
	Status       ListingStatus `gorm:"type:varchar(50);not null;default:'Active';index" json:"status"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	Bathrooms    *float64      `gorm:"type:decimal(4,1)" json:"bathrooms,omitempty"`
	SquareFeet   *int          `json:"square_feet,omitempty"`
	PropertyType string        `gorm:"type:varchar(50);index" json:"property_type,omitempty"`
	ListingDate  *time.Time    `gorm:"type:date" json:"listing_date,omitempty"`
	DaysOnMarket *int          `json:"days_on_market,omitempty"`
	Description  string        `gorm:"type:text" json:"description,omitempty"`

	ListingAgent     string `gorm:"type:varchar(255)" json:"listing_agent,omitempty"`
	ListingBrokerage string `gorm:"type:varchar(255)" json:"listing_brokerage,omitempty"`
	SourceURL        string `gorm:"type:text" json:"source_url,omitempty"`
	SourcePlatform   string `gorm:"type:varchar(50);not null;default:'Manual'" json:"source_platform"`

	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	FirstSeenAt time.Time `gorm:"not null" json:"first_seen_at"`
	LastSeenAt  time.Time `gorm:"not null" json:"last_seen_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations (cascade on listing delete)
	PriceHistory   []PriceHistoryEntry `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"price_history,omitempty"`
	TrackingEvents []TrackingEvent     `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
	Photos         []ListingPhoto      `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

// TableName specifies the table name for Listing
func (Listing) TableName() string {
	return "listing"
}
