package sales

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"condo-tracker/internal/buildings"
	"condo-tracker/internal/models"
	"condo-tracker/internal/tracker"
)

// SaleRecord is the typed input for a historical sale
type SaleRecord struct {
	BuildingName string `json:"building_name"`
	Address      string `json:"address,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`

	UnitNumber   string    `json:"unit_number,omitempty"`
	SalePrice    float64   `json:"sale_price"`
	SaleDate     time.Time `json:"sale_date"`
	Bedrooms     *int      `json:"bedrooms,omitempty"`
	Bathrooms    *float64  `json:"bathrooms,omitempty"`
	SquareFeet   *int      `json:"square_feet,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	DaysOnMarket *int      `json:"days_on_market,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	DataSource   string    `json:"data_source,omitempty"`

	// Photos to hand to the download collaborator after the sale commits
	Photos []string `json:"photos,omitempty"`
}

// Service creates and lists historical sales. Sales share the building
// resolver with the listing tracker but are independent of the listing table.
type Service struct {
	db       *gorm.DB
	resolver *buildings.Resolver
}

// NewService creates a new historical sale service
func NewService(db *gorm.DB, resolver *buildings.Resolver) *Service {
	return &Service{db: db, resolver: resolver}
}

// CreateSale records a historical sale, resolving (or lazily creating) its
// building. The building resolution and sale insert commit together.
func (s *Service) CreateSale(rec SaleRecord) (*models.HistoricalSale, error) {
	if rec.BuildingName == "" && rec.Address == "" {
		return nil, fmt.Errorf("building_name is required: %w", tracker.ErrValidation)
	}

	dataSource := rec.DataSource
	if dataSource == "" {
		dataSource = models.DataSourceManual
	}

	var sale models.HistoricalSale
	err := s.db.Transaction(func(tx *gorm.DB) error {
		buildingID, err := s.resolver.ResolveTx(tx, rec.BuildingName, rec.Address, rec.Neighborhood)
		if err != nil {
			return err
		}

		sale = models.HistoricalSale{
			BuildingID:   buildingID,
			UnitNumber:   rec.UnitNumber,
			SalePrice:    rec.SalePrice,
			SaleDate:     rec.SaleDate,
			Bedrooms:     rec.Bedrooms,
			Bathrooms:    rec.Bathrooms,
			SquareFeet:   rec.SquareFeet,
			PropertyType: rec.PropertyType,
			DaysOnMarket: rec.DaysOnMarket,
			Notes:        rec.Notes,
			DataSource:   dataSource,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("failed to create historical sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

// SaleFilters narrows a historical sale search
type SaleFilters struct {
	BuildingID *uint
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// SaleSummary is the list-view projection of a historical sale
type SaleSummary struct {
	ID           uint      `gorm:"column:id" json:"id"`
	BuildingName string    `gorm:"column:building_name" json:"building_name,omitempty"`
	UnitNumber   string    `gorm:"column:unit_number" json:"unit_number,omitempty"`
	SalePrice    float64   `gorm:"column:sale_price" json:"sale_price"`
	SaleDate     time.Time `gorm:"column:sale_date" json:"sale_date"`
	Bedrooms     *int      `gorm:"column:bedrooms" json:"bedrooms,omitempty"`
	Bathrooms    *float64  `gorm:"column:bathrooms" json:"bathrooms,omitempty"`
	SquareFeet   *int      `gorm:"column:square_feet" json:"square_feet,omitempty"`
	DaysOnMarket *int      `gorm:"column:days_on_market" json:"days_on_market,omitempty"`
	PricePerSqft *float64  `gorm:"-" json:"price_per_sqft,omitempty"`
}

// SaleList is a paginated historical sale result
type SaleList struct {
	Total  int64         `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
	Sales  []SaleSummary `json:"sales"`
}

// ListSales returns sale summaries matching the filters, newest first.
func (s *Service) ListSales(filters SaleFilters) (*SaleList, error) {
	query := s.db.Model(&models.HistoricalSale{}).
		Joins("LEFT JOIN building ON building.id = historical_sale.building_id")

	if filters.BuildingID != nil {
		query = query.Where("historical_sale.building_id = ?", *filters.BuildingID)
	}
	if filters.StartDate != nil {
		query = query.Where("historical_sale.sale_date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("historical_sale.sale_date <= ?", *filters.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var summaries []SaleSummary
	err := query.
		Select(`historical_sale.id, building.name AS building_name, historical_sale.unit_number,
			historical_sale.sale_price, historical_sale.sale_date, historical_sale.bedrooms,
			historical_sale.bathrooms, historical_sale.square_feet, historical_sale.days_on_market`).
		Order("historical_sale.sale_date DESC").
		Limit(limit).
		Offset(filters.Offset).
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	for i := range summaries {
		sum := &summaries[i]
		if sum.SquareFeet != nil && *sum.SquareFeet > 0 {
			perSqft := sum.SalePrice / float64(*sum.SquareFeet)
			sum.PricePerSqft = &perSqft
		}
	}

	return &SaleList{
		Total:  total,
		Offset: filters.Offset,
		Limit:  limit,
		Sales:  summaries,
	}, nil
}
