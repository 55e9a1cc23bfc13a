package models

import "time"

// HistoricalSale is a completed sale record. Sales reference a building the
// same way listings do, but are independent of the listing table: a sale does
// not need to correspond to a tracked listing.
type HistoricalSale struct {
	ID         uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	BuildingID *uint `gorm:"index" json:"building_id,omitempty"`

	UnitNumber   string    `gorm:"type:varchar(20)" json:"unit_number,omitempty"`
	SalePrice    float64   `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	SaleDate     time.Time `gorm:"type:date;not null;index" json:"sale_date"`
	Bedrooms     *int      `json:"bedrooms,omitempty"`
	Bathrooms    *float64  `gorm:"type:decimal(4,1)" json:"bathrooms,omitempty"`
	SquareFeet   *int      `json:"square_feet,omitempty"`
	PropertyType string    `gorm:"type:varchar(50)" json:"property_type,omitempty"`
	DaysOnMarket *int      `json:"days_on_market,omitempty"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	DataSource   string    `gorm:"type:varchar(50);not null;default:'Manual Entry'" json:"data_source"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Photos []SalePhoto `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
}

// TableName specifies the table name for HistoricalSale
func (HistoricalSale) TableName() string {
	return "historical_sale"
}

// DataSource constants
const (
	DataSourceManual = "Manual Entry"
	DataSourceCSV    = "CSV Import"
)
