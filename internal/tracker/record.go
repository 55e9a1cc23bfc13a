package tracker

import (
	"time"

	"condo-tracker/internal/models"
)

// ListingRecord is the typed input for an upsert. Optional numeric fields use
// pointers so an omitted field is distinguishable from an explicit zero.
type ListingRecord struct {
	MLSNumber string `json:"mls_number"`

	// Building resolution inputs
	BuildingName string `json:"building_name,omitempty"`
	Address      string `json:"address,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`

	UnitNumber   string               `json:"unit_number,omitempty"`
	Status       models.ListingStatus `json:"status,omitempty"`
	Bedrooms     *int                 `json:"bedrooms,omitempty"`
	Bathrooms    *float64             `json:"bathrooms,omitempty"`
	SquareFeet   *int                 `json:"square_feet,omitempty"`
	PropertyType string               `json:"property_type,omitempty"`
	ListingDate  *time.Time           `json:"listing_date,omitempty"`
	DaysOnMarket *int                 `json:"days_on_market,omitempty"`
	Description  string               `json:"description,omitempty"`

	ListingAgent     string `json:"listing_agent,omitempty"`
	ListingBrokerage string `json:"listing_brokerage,omitempty"`
	SourceURL        string `json:"source_url,omitempty"`
	SourcePlatform   string `json:"source_platform,omitempty"`

	// Price creates a price-history entry when present
	Price *float64 `json:"price,omitempty"`

	// Photos to hand to the download collaborator after the upsert commits
	Photos []string `json:"photos,omitempty"`
}

// ListingPatch is a partial update. Every field is a pointer so an omitted
// field is left unchanged; only present fields are written.
type ListingPatch struct {
	Status       *models.ListingStatus `json:"status,omitempty"`
	Bedrooms     *int                  `json:"bedrooms,omitempty"`
	Bathrooms    *float64              `json:"bathrooms,omitempty"`
	SquareFeet   *int                  `json:"square_feet,omitempty"`
	Description  *string               `json:"description,omitempty"`
	ListingAgent *string               `json:"listing_agent,omitempty"`
	DaysOnMarket *int                  `json:"days_on_market,omitempty"`
	IsActive     *bool                 `json:"is_active,omitempty"`
}

// UpsertResult reports the outcome of an upsert
type UpsertResult struct {
	ListingID     uint   `json:"listing_id"`
	MLSNumber     string `json:"mls_number"`
	IsNew         bool   `json:"is_new"`
	PriceRecorded bool   `json:"price_recorded"`
}

// PriceResult reports a recorded price point together with its delta against
// the previous most-recent entry. PercentChange is nil when there is no
// previous price or the previous price is zero.
type PriceResult struct {
	PriceHistoryID uint     `json:"price_history_id"`
	PreviousPrice  *float64 `json:"previous_price,omitempty"`
	PriceChange    *float64 `json:"price_change,omitempty"`
	PercentChange  *float64 `json:"percent_change,omitempty"`
}

// ListingDetail is a full listing view with resolved building info, price
// history (date-descending) and photos (display-order ascending).
type ListingDetail struct {
	models.Listing
	BuildingName     string   `json:"building_name,omitempty"`
	BuildingAddress  string   `json:"building_address,omitempty"`
	NeighborhoodName string   `json:"neighborhood_name,omitempty"`
	CurrentPrice     *float64 `json:"current_price,omitempty"`
	PricePerSqft     *float64 `json:"price_per_sqft,omitempty"`

	PriceHistory []PricePoint          `json:"price_history"`
	Photos       []models.ListingPhoto `json:"photos"`
}

// PricePoint is a price history entry annotated with its delta against the
// chronologically previous entry.
type PricePoint struct {
	models.PriceHistoryEntry
	PreviousPrice *float64 `json:"previous_price,omitempty"`
	PriceChange   *float64 `json:"price_change,omitempty"`
	PercentChange *float64 `json:"percent_change,omitempty"`
}
