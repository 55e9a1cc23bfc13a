package buildings

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"condo-tracker/internal/models"
)

// BuildingSummary is a building row with listing counts for list views
type BuildingSummary struct {
	models.Building
	NeighborhoodName string `json:"neighborhood_name,omitempty"`
	ActiveListings   int64  `json:"active_listings"`
	TotalListings    int64  `json:"total_listings"`
	HistoricalSales  int64  `json:"historical_sales"`
}

// ListBuildings returns all buildings ordered by name, with per-building
// listing and sale counts
func (r *Resolver) ListBuildings() ([]BuildingSummary, error) {
	var buildings []models.Building
	if err := r.db.Order("name ASC").Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}

	summaries := make([]BuildingSummary, 0, len(buildings))
	for i := range buildings {
		summary, err := r.summarize(&buildings[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}

	return summaries, nil
}

// GetBuilding returns a single building with its counts
func (r *Resolver) GetBuilding(id uint) (*BuildingSummary, error) {
	var building models.Building
	err := r.db.First(&building, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch building: %w", err)
	}

	return r.summarize(&building)
}

// summarize attaches counts and the neighborhood name to a building
func (r *Resolver) summarize(building *models.Building) (*BuildingSummary, error) {
	summary := BuildingSummary{Building: *building}

	if building.NeighborhoodID != nil {
		var neighborhood models.Neighborhood
		if err := r.db.First(&neighborhood, *building.NeighborhoodID).Error; err == nil {
			summary.NeighborhoodName = neighborhood.Name
		}
	}

	if err := r.db.Model(&models.Listing{}).
		Where("building_id = ? AND is_active = ?", building.ID, true).
		Count(&summary.ActiveListings).Error; err != nil {
		return nil, fmt.Errorf("failed to count active listings: %w", err)
	}
	if err := r.db.Model(&models.Listing{}).
		Where("building_id = ?", building.ID).
		Count(&summary.TotalListings).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}
	if err := r.db.Model(&models.HistoricalSale{}).
		Where("building_id = ?", building.ID).
		Count(&summary.HistoricalSales).Error; err != nil {
		return nil, fmt.Errorf("failed to count historical sales: %w", err)
	}

	return &summary, nil
}

// ListNeighborhoods returns all neighborhoods ordered by name
func (r *Resolver) ListNeighborhoods() ([]models.Neighborhood, error) {
	var neighborhoods []models.Neighborhood
	if err := r.db.Order("name ASC").Find(&neighborhoods).Error; err != nil {
		return nil, fmt.Errorf("failed to list neighborhoods: %w", err)
	}
	return neighborhoods, nil
}

// BuildingStats aggregates sale statistics for one building
type BuildingStats struct {
	BuildingID      uint     `json:"building_id"`
	SaleCount       int64    `json:"sale_count"`
	AvgSalePrice    *float64 `json:"avg_sale_price,omitempty"`
	MinSalePrice    *float64 `json:"min_sale_price,omitempty"`
	MaxSalePrice    *float64 `json:"max_sale_price,omitempty"`
	AvgPricePerSqft *float64 `json:"avg_price_per_sqft,omitempty"`
}

// GetBuildingStats computes sale price statistics for a building
func (r *Resolver) GetBuildingStats(id uint) (*BuildingStats, error) {
	var building models.Building
	err := r.db.Select("id").First(&building, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch building: %w", err)
	}

	stats := BuildingStats{BuildingID: id}

	if err := r.db.Model(&models.HistoricalSale{}).
		Where("building_id = ?", id).
		Count(&stats.SaleCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	if stats.SaleCount > 0 {
		row := struct {
			Avg float64
			Min float64
			Max float64
		}{}
		err := r.db.Model(&models.HistoricalSale{}).
			Select("AVG(sale_price) as avg, MIN(sale_price) as min, MAX(sale_price) as max").
			Where("building_id = ?", id).
			Scan(&row).Error
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate sale prices: %w", err)
		}
		stats.AvgSalePrice = &row.Avg
		stats.MinSalePrice = &row.Min
		stats.MaxSalePrice = &row.Max

		var perSqft float64
		err = r.db.Model(&models.HistoricalSale{}).
			Select("AVG(sale_price / square_feet)").
			Where("building_id = ? AND square_feet IS NOT NULL AND square_feet > 0", id).
			Scan(&perSqft).Error
		if err == nil && perSqft > 0 {
			stats.AvgPricePerSqft = &perSqft
		}
	}

	return &stats, nil
}
