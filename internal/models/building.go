package models

import "time"

// Building represents a physical building shared by listings and historical sales.
// Buildings are created lazily on first sighting and never deleted by the tracker.
type Building struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string  `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Address        string  `gorm:"type:varchar(500);not null;index" json:"address"`
	City           string  `gorm:"type:varchar(100);not null;default:'Victoria'" json:"city"`
	NeighborhoodID *uint   `gorm:"index" json:"neighborhood_id,omitempty"`
	PostalCode     string  `gorm:"type:varchar(20)" json:"postal_code,omitempty"`
	YearBuilt      *int    `json:"year_built,omitempty"`
	TotalUnits     *int    `json:"total_units,omitempty"`
	Floors         *int    `json:"floors,omitempty"`
	BuildingType   string  `gorm:"type:varchar(50)" json:"building_type,omitempty"` // High-Rise, Mid-Rise, etc.
	Description    string  `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Building
func (Building) TableName() string {
	return "building"
}

// Neighborhood is a lookup-only entity. The tracker resolves neighborhoods by
// exact name match and never auto-creates them.
type Neighborhood struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	City        string `gorm:"type:varchar(100);not null;default:'Victoria'" json:"city"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Neighborhood
func (Neighborhood) TableName() string {
	return "neighborhood"
}
