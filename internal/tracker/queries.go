package tracker

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"condo-tracker/internal/models"
)

// currentPriceSubquery selects the most recent recorded price for a listing
const currentPriceSubquery = `(SELECT price FROM price_history
	WHERE price_history.listing_id = listing.id
	ORDER BY recorded_date DESC LIMIT 1)`

// GetListing returns the full listing view for an MLS number, or ErrNotFound.
func (s *Service) GetListing(mlsNumber string) (*ListingDetail, error) {
	var listing models.Listing
	err := s.db.Where("mls_number = ?", mlsNumber).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("listing %s: %w", mlsNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	detail := ListingDetail{Listing: listing}

	if listing.BuildingID != nil {
		var building models.Building
		if err := s.db.First(&building, *listing.BuildingID).Error; err == nil {
			detail.BuildingName = building.Name
			detail.BuildingAddress = building.Address
			if building.NeighborhoodID != nil {
				var neighborhood models.Neighborhood
				if err := s.db.First(&neighborhood, *building.NeighborhoodID).Error; err == nil {
					detail.NeighborhoodName = neighborhood.Name
				}
			}
		}
	}

	history, err := s.priceHistory(listing.ID)
	if err != nil {
		return nil, err
	}
	detail.PriceHistory = history

	if len(history) > 0 {
		price := history[0].Price
		detail.CurrentPrice = &price
		if listing.SquareFeet != nil && *listing.SquareFeet > 0 {
			perSqft := price / float64(*listing.SquareFeet)
			detail.PricePerSqft = &perSqft
		}
	}

	if err := s.db.Where("listing_id = ?", listing.ID).
		Order("display_order").
		Find(&detail.Photos).Error; err != nil {
		return nil, fmt.Errorf("failed to load photos: %w", err)
	}

	return &detail, nil
}

// GetPriceHistory returns the annotated price history for a listing,
// date-descending, or ErrNotFound.
func (s *Service) GetPriceHistory(mlsNumber string) ([]PricePoint, error) {
	var listing models.Listing
	err := s.db.Select("id").Where("mls_number = ?", mlsNumber).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("listing %s: %w", mlsNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up listing: %w", err)
	}

	return s.priceHistory(listing.ID)
}

// priceHistory loads entries date-descending and annotates each with the
// delta against its chronological predecessor.
func (s *Service) priceHistory(listingID uint) ([]PricePoint, error) {
	var entries []models.PriceHistoryEntry
	if err := s.db.Where("listing_id = ?", listingID).
		Order("recorded_date DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}

	points := make([]PricePoint, len(entries))
	for i, entry := range entries {
		point := PricePoint{PriceHistoryEntry: entry}
		if i+1 < len(entries) {
			prev := entries[i+1].Price
			change := entry.Price - prev
			point.PreviousPrice = &prev
			point.PriceChange = &change
			if prev != 0 {
				percent := change / prev * 100
				point.PercentChange = &percent
			}
		}
		points[i] = point
	}

	return points, nil
}

// ListingFilters narrows a listing search
type ListingFilters struct {
	Status         string
	BuildingID     *uint
	NeighborhoodID *uint
	MinPrice       *float64
	MaxPrice       *float64
	Bedrooms       *int
	PropertyType   string
	Sort           string
	Limit          int
	Offset         int
}

// ListingSummary is the list-view projection of a listing
type ListingSummary struct {
	MLSNumber      *string  `gorm:"column:mls_number" json:"mls_number"`
	BuildingName   string   `gorm:"column:building_name" json:"building_name,omitempty"`
	UnitNumber     string   `gorm:"column:unit_number" json:"unit_number,omitempty"`
	Bedrooms       *int     `gorm:"column:bedrooms" json:"bedrooms,omitempty"`
	Bathrooms      *float64 `gorm:"column:bathrooms" json:"bathrooms,omitempty"`
	SquareFeet     *int     `gorm:"column:square_feet" json:"square_feet,omitempty"`
	Status         string   `gorm:"column:status" json:"status"`
	DaysOnMarket   *int     `gorm:"column:days_on_market" json:"days_on_market,omitempty"`
	SourceURL      string   `gorm:"column:source_url" json:"source_url,omitempty"`
	CurrentPrice   *float64 `gorm:"column:current_price" json:"current_price,omitempty"`
	PhotoThumbnail *string  `gorm:"column:photo_thumbnail" json:"photo_thumbnail,omitempty"`
	PricePerSqft   *float64 `gorm:"-" json:"price_per_sqft,omitempty"`
}

// ListingList is a paginated listing result
type ListingList struct {
	Total    int64            `json:"total"`
	Offset   int              `json:"offset"`
	Limit    int              `json:"limit"`
	Listings []ListingSummary `json:"listings"`
}

// ListListings returns listing summaries matching the filters. Without an
// explicit status filter only active listings are returned.
func (s *Service) ListListings(filters ListingFilters) (*ListingList, error) {
	query := s.db.Model(&models.Listing{}).
		Joins("LEFT JOIN building ON building.id = listing.building_id")

	if filters.Status != "" {
		query = query.Where("listing.status = ?", filters.Status)
	} else {
		query = query.Where("listing.is_active = ?", true)
	}
	if filters.BuildingID != nil {
		query = query.Where("listing.building_id = ?", *filters.BuildingID)
	}
	if filters.NeighborhoodID != nil {
		query = query.Where("building.neighborhood_id = ?", *filters.NeighborhoodID)
	}
	if filters.Bedrooms != nil {
		query = query.Where("listing.bedrooms = ?", *filters.Bedrooms)
	}
	if filters.PropertyType != "" {
		query = query.Where("listing.property_type = ?", filters.PropertyType)
	}
	if filters.MinPrice != nil {
		query = query.Where(currentPriceSubquery+" >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where(currentPriceSubquery+" <= ?", *filters.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	var orderClause string
	switch filters.Sort {
	case "price_asc":
		orderClause = "current_price ASC"
	case "price_desc":
		orderClause = "current_price DESC"
	case "days_on_market":
		orderClause = "listing.days_on_market ASC"
	default:
		orderClause = "listing.listing_date DESC"
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var summaries []ListingSummary
	err := query.
		Select(`listing.mls_number, building.name AS building_name, listing.unit_number,
			listing.bedrooms, listing.bathrooms, listing.square_feet, listing.status,
			listing.days_on_market, listing.source_url,
			` + currentPriceSubquery + ` AS current_price,
			(SELECT photo_url FROM listing_photo
				WHERE listing_photo.listing_id = listing.id
				ORDER BY display_order LIMIT 1) AS photo_thumbnail`).
		Order(orderClause).
		Limit(limit).
		Offset(filters.Offset).
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	for i := range summaries {
		sum := &summaries[i]
		if sum.CurrentPrice != nil && sum.SquareFeet != nil && *sum.SquareFeet > 0 {
			perSqft := *sum.CurrentPrice / float64(*sum.SquareFeet)
			sum.PricePerSqft = &perSqft
		}
	}

	return &ListingList{
		Total:    total,
		Offset:   filters.Offset,
		Limit:    limit,
		Listings: summaries,
	}, nil
}
