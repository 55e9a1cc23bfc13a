package models

import "time"

// ListingPhoto is a stored photo artifact for a listing. PhotoURL is a
// relative path under the photo storage root.
type ListingPhoto struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID    uint      `gorm:"not null;index" json:"listing_id"`
	PhotoURL     string    `gorm:"type:text;not null" json:"photo_url"`
	DisplayOrder int       `gorm:"not null;default:0;index" json:"display_order"`
	Caption      string    `gorm:"type:text" json:"caption,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for ListingPhoto
func (ListingPhoto) TableName() string {
	return "listing_photo"
}

// SalePhoto is a stored photo artifact for a historical sale.
type SalePhoto struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID       uint      `gorm:"not null;index" json:"sale_id"`
	PhotoURL     string    `gorm:"type:text;not null" json:"photo_url"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	Caption      string    `gorm:"type:text" json:"caption,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for SalePhoto
func (SalePhoto) TableName() string {
	return "historical_sale_photo"
}
