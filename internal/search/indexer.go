package search

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"condo-tracker/internal/logger"
	"condo-tracker/internal/models"
)

// Indexer keeps the search index in step with the listing store.
// All methods are no-ops when the client is nil (search disabled).
type Indexer struct {
	db     *gorm.DB
	client *SearchClient
}

// NewIndexer creates a new indexer
func NewIndexer(db *gorm.DB, client *SearchClient) *Indexer {
	return &Indexer{db: db, client: client}
}

// Enabled reports whether a search backend is configured
func (ix *Indexer) Enabled() bool {
	return ix != nil && ix.client != nil
}

// buildDocument flattens a listing and its relations into a search document
func (ix *Indexer) buildDocument(listing *models.Listing) ListingDocument {
	doc := ListingDocument{
		ID:           listing.ID,
		UnitNumber:   listing.UnitNumber,
		Status:       string(listing.Status),
		Bedrooms:     listing.Bedrooms,
		Bathrooms:    listing.Bathrooms,
		SquareFeet:   listing.SquareFeet,
		PropertyType: listing.PropertyType,
		IsActive:     listing.IsActive,
	}
	if listing.MLSNumber != nil {
		doc.MLSNumber = *listing.MLSNumber
	}
	if listing.ListingDate != nil {
		doc.ListingDate = listing.ListingDate.Format("2006-01-02")
	}

	if listing.BuildingID != nil {
		var building models.Building
		if err := ix.db.First(&building, *listing.BuildingID).Error; err == nil {
			doc.BuildingName = building.Name
			doc.Address = building.Address
			if building.NeighborhoodID != nil {
				var neighborhood models.Neighborhood
				if err := ix.db.First(&neighborhood, *building.NeighborhoodID).Error; err == nil {
					doc.Neighborhood = neighborhood.Name
				}
			}
		}
	}

	var latest models.PriceHistoryEntry
	err := ix.db.Where("listing_id = ?", listing.ID).
		Order("recorded_date DESC, id DESC").
		First(&latest).Error
	if err == nil {
		doc.CurrentPrice = &latest.Price
	}

	return doc
}

// IndexListing indexes one listing, logging failures rather than
// surfacing them to the caller
func (ix *Indexer) IndexListing(listing *models.Listing) {
	if !ix.Enabled() {
		return
	}
	doc := ix.buildDocument(listing)
	if err := ix.client.IndexListing(&doc); err != nil {
		logger.Warn("Failed to index listing",
			zap.Uint("listing_id", listing.ID), zap.Error(err))
	}
}

// IndexListingByID fetches a listing and indexes it
func (ix *Indexer) IndexListingByID(listingID uint) {
	if !ix.Enabled() {
		return
	}
	var listing models.Listing
	if err := ix.db.First(&listing, listingID).Error; err != nil {
		logger.Warn("Failed to load listing for indexing",
			zap.Uint("listing_id", listingID), zap.Error(err))
		return
	}
	ix.IndexListing(&listing)
}

// RemoveListing deletes a listing from the index
func (ix *Indexer) RemoveListing(listingID uint) {
	if !ix.Enabled() {
		return
	}
	if err := ix.client.DeleteListing(listingID); err != nil {
		logger.Warn("Failed to remove listing from index",
			zap.Uint("listing_id", listingID), zap.Error(err))
	}
}

// Search queries the index. Returns an empty result when search is
// disabled.
func (ix *Indexer) Search(query string, limit int64) ([]ListingDocument, error) {
	if !ix.Enabled() {
		return []ListingDocument{}, nil
	}
	return ix.client.Search(query, limit)
}

// ReindexAll rebuilds the index from every listing in the store
func (ix *Indexer) ReindexAll() (int, error) {
	if !ix.Enabled() {
		return 0, nil
	}

	var listings []models.Listing
	if err := ix.db.Find(&listings).Error; err != nil {
		return 0, err
	}

	docs := make([]ListingDocument, 0, len(listings))
	for i := range listings {
		docs = append(docs, ix.buildDocument(&listings[i]))
	}

	if err := ix.client.IndexListings(docs); err != nil {
		return 0, err
	}

	logger.Info("Reindexed listings", zap.Int("count", len(docs)))
	return len(docs), nil
}
