package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"condo-tracker/internal/buildings"
	"condo-tracker/internal/database"
	"condo-tracker/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// In-memory sqlite lives per connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Neighborhood{},
		&models.Building{},
		&models.Listing{},
		&models.PriceHistoryEntry{},
		&models.TrackingEvent{},
		&models.HistoricalSale{},
		&models.ListingPhoto{},
		&models.SalePhoto{},
		&models.PhotoDownloadQueue{},
	))
	require.NoError(t, database.SeedNeighborhoods(db))

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewService(db, buildings.NewResolver(db), nil), db
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestUpsertListingCreatesNewListing(t *testing.T) {
	svc, db := newTestService(t)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1001",
		BuildingName: "The Falls",
		Neighborhood: "Downtown",
		UnitNumber:   "802",
		Price:        floatPtr(500000),
		ListingDate:  &date,
	})
	require.NoError(t, err)
	assert.True(t, result.IsNew)
	assert.True(t, result.PriceRecorded)
	assert.Equal(t, "VIC-1001", result.MLSNumber)

	var listing models.Listing
	require.NoError(t, db.Where("mls_number = ?", "VIC-1001").First(&listing).Error)
	assert.True(t, listing.IsActive)
	assert.Equal(t, models.StatusActive, listing.Status)
	require.NotNil(t, listing.BuildingID)

	var entry models.PriceHistoryEntry
	require.NoError(t, db.Where("listing_id = ?", listing.ID).First(&entry).Error)
	assert.Equal(t, models.PriceEventInitial, entry.EventType)
	assert.Equal(t, 500000.0, entry.Price)

	var event models.TrackingEvent
	require.NoError(t, db.Where("listing_id = ?", listing.ID).First(&event).Error)
	assert.Equal(t, models.EventDiscovered, event.EventType)
}

func TestUpsertListingRequiresMLSNumber(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpsertListing(ListingRecord{BuildingName: "The Falls"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpsertListingIdempotentWhenPriceUnchanged(t *testing.T) {
	svc, db := newTestService(t)

	rec := ListingRecord{
		MLSNumber:    "VIC-1002",
		BuildingName: "Shoal Point",
		Price:        floatPtr(750000),
	}

	first, err := svc.UpsertListing(rec)
	require.NoError(t, err)
	assert.True(t, first.IsNew)

	second, err := svc.UpsertListing(rec)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.False(t, second.PriceRecorded)
	assert.Equal(t, first.ListingID, second.ListingID)

	var count int64
	db.Model(&models.PriceHistoryEntry{}).Where("listing_id = ?", first.ListingID).Count(&count)
	assert.Equal(t, int64(1), count)

	var listingCount int64
	db.Model(&models.Listing{}).Where("mls_number = ?", "VIC-1002").Count(&listingCount)
	assert.Equal(t, int64(1), listingCount)
}

func TestUpsertListingClassifiesPriceDropAndIncrease(t *testing.T) {
	svc, db := newTestService(t)

	rec := ListingRecord{
		MLSNumber:    "VIC-1003",
		BuildingName: "The Promontory",
		Price:        floatPtr(500000),
	}
	first, err := svc.UpsertListing(rec)
	require.NoError(t, err)

	rec.Price = floatPtr(475000)
	result, err := svc.UpsertListing(rec)
	require.NoError(t, err)
	assert.True(t, result.PriceRecorded)

	var drop models.PriceHistoryEntry
	require.NoError(t, db.Where("listing_id = ? AND price = ?", first.ListingID, 475000.0).
		First(&drop).Error)
	assert.Equal(t, models.PriceEventDrop, drop.EventType)

	rec.Price = floatPtr(525000)
	_, err = svc.UpsertListing(rec)
	require.NoError(t, err)

	var increase models.PriceHistoryEntry
	require.NoError(t, db.Where("listing_id = ? AND price = ?", first.ListingID, 525000.0).
		First(&increase).Error)
	assert.Equal(t, models.PriceEventIncrease, increase.EventType)
}

func TestUpsertListingReactivatesOnResight(t *testing.T) {
	svc, db := newTestService(t)

	rec := ListingRecord{MLSNumber: "VIC-1004", BuildingName: "Mermaid Wharf"}
	first, err := svc.UpsertListing(rec)
	require.NoError(t, err)

	found, err := svc.SetStatus("VIC-1004", models.StatusExpired, nil, nil)
	require.NoError(t, err)
	require.True(t, found)

	var listing models.Listing
	require.NoError(t, db.First(&listing, first.ListingID).Error)
	assert.False(t, listing.IsActive)

	_, err = svc.UpsertListing(rec)
	require.NoError(t, err)

	require.NoError(t, db.First(&listing, first.ListingID).Error)
	assert.True(t, listing.IsActive)
	assert.Equal(t, models.StatusActive, listing.Status)
}

func TestPatchListingAppliesOnlyPresentFields(t *testing.T) {
	svc, db := newTestService(t)

	bedrooms := 2
	_, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1017",
		BuildingName: "The Falls",
		Bedrooms:     &bedrooms,
		Description:  "Corner unit",
	})
	require.NoError(t, err)

	found, err := svc.PatchListing("VIC-1017", ListingPatch{
		Bathrooms:    floatPtr(2.5),
		DaysOnMarket: intPtr(14),
	})
	require.NoError(t, err)
	assert.True(t, found)

	var listing models.Listing
	require.NoError(t, db.Where("mls_number = ?", "VIC-1017").First(&listing).Error)
	require.NotNil(t, listing.Bathrooms)
	assert.Equal(t, 2.5, *listing.Bathrooms)
	require.NotNil(t, listing.DaysOnMarket)
	assert.Equal(t, 14, *listing.DaysOnMarket)

	// Omitted fields keep their stored values
	require.NotNil(t, listing.Bedrooms)
	assert.Equal(t, 2, *listing.Bedrooms)
	assert.Equal(t, "Corner unit", listing.Description)
}

func TestPatchListingEmptyPatchIsNoOp(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1018",
		BuildingName: "The Falls",
		Description:  "As listed",
	})
	require.NoError(t, err)

	found, err := svc.PatchListing("VIC-1018", ListingPatch{})
	require.NoError(t, err)
	assert.True(t, found)

	var listing models.Listing
	require.NoError(t, db.Where("mls_number = ?", "VIC-1018").First(&listing).Error)
	assert.Equal(t, "As listed", listing.Description)
}

func TestPatchListingUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	found, err := svc.PatchListing("NO-SUCH", ListingPatch{Description: strPtr("x")})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetStatusSoldRecordsSalePrice(t *testing.T) {
	svc, db := newTestService(t)

	result, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1005",
		BuildingName: "The Falls",
		Price:        floatPtr(600000),
	})
	require.NoError(t, err)

	saleDate := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	found, err := svc.SetStatus("VIC-1005", models.StatusSold, floatPtr(590000), &saleDate)
	require.NoError(t, err)
	assert.True(t, found)

	var listing models.Listing
	require.NoError(t, db.First(&listing, result.ListingID).Error)
	assert.Equal(t, models.StatusSold, listing.Status)
	assert.False(t, listing.IsActive)

	var sold models.PriceHistoryEntry
	require.NoError(t, db.Where("listing_id = ? AND event_type = ?",
		result.ListingID, models.PriceEventSold).First(&sold).Error)
	assert.Equal(t, 590000.0, sold.Price)

	var event models.TrackingEvent
	require.NoError(t, db.Where("listing_id = ? AND event_type = ?",
		result.ListingID, models.EventStatusChange).First(&event).Error)
	assert.Contains(t, event.Details, "Sold")
}

func TestSetStatusUnknownListing(t *testing.T) {
	svc, _ := newTestService(t)

	found, err := svc.SetStatus("NO-SUCH", models.StatusSold, nil, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecordPriceReportsDelta(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1006",
		BuildingName: "Swallows Landing",
		Price:        floatPtr(500000),
	})
	require.NoError(t, err)

	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.RecordPrice("VIC-1006", 475000, &date, models.PriceEventChange, "relisted lower")
	require.NoError(t, err)

	require.NotNil(t, result.PreviousPrice)
	assert.Equal(t, 500000.0, *result.PreviousPrice)
	require.NotNil(t, result.PriceChange)
	assert.Equal(t, -25000.0, *result.PriceChange)
	require.NotNil(t, result.PercentChange)
	assert.InDelta(t, -5.0, *result.PercentChange, 0.001)
}

func TestRecordPriceDeduplicatesSameDayPrice(t *testing.T) {
	svc, db := newTestService(t)

	result, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1007",
		BuildingName: "The Juliet",
	})
	require.NoError(t, err)

	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	first, err := svc.RecordPrice("VIC-1007", 450000, &date, models.PriceEventChange, "")
	require.NoError(t, err)

	second, err := svc.RecordPrice("VIC-1007", 450000, &date, models.PriceEventChange, "")
	require.NoError(t, err)
	assert.Equal(t, first.PriceHistoryID, second.PriceHistoryID)

	var count int64
	db.Model(&models.PriceHistoryEntry{}).Where("listing_id = ?", result.ListingID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordPriceDedupKeepsOriginalNotes(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1016",
		BuildingName: "The Juliet",
	})
	require.NoError(t, err)

	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	first, err := svc.RecordPrice("VIC-1016", 450000, &date, models.PriceEventChange, "Seen on listing sheet")
	require.NoError(t, err)

	// Re-recording the same price must not rewrite the existing entry
	_, err = svc.RecordPrice("VIC-1016", 450000, &date, models.PriceEventChange, "Different notes")
	require.NoError(t, err)

	var entry models.PriceHistoryEntry
	require.NoError(t, db.First(&entry, first.PriceHistoryID).Error)
	assert.Equal(t, "Seen on listing sheet", entry.Notes)
}

func TestRecordPriceUnknownListing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordPrice("NO-SUCH", 100000, nil, models.PriceEventChange, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakePurger struct {
	purged []string
}

func (f *fakePurger) PurgeListingPhotos(mlsNumber string) (int, error) {
	f.purged = append(f.purged, mlsNumber)
	return 0, nil
}

func TestDeleteListingCascades(t *testing.T) {
	db := newTestDB(t)
	purger := &fakePurger{}
	svc := NewService(db, buildings.NewResolver(db), purger)

	result, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1008",
		BuildingName: "The Falls",
		Price:        floatPtr(800000),
	})
	require.NoError(t, err)

	found, err := svc.DeleteListing("VIC-1008", true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"VIC-1008"}, purger.purged)

	var count int64
	db.Model(&models.Listing{}).Where("mls_number = ?", "VIC-1008").Count(&count)
	assert.Equal(t, int64(0), count)

	db.Model(&models.PriceHistoryEntry{}).Where("listing_id = ?", result.ListingID).Count(&count)
	assert.Equal(t, int64(0), count)

	db.Model(&models.TrackingEvent{}).Where("listing_id = ?", result.ListingID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeleteListingUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	found, err := svc.DeleteListing("NO-SUCH", false)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetListingDetail(t *testing.T) {
	svc, _ := newTestService(t)

	sqft := 900
	_, err := svc.UpsertListing(ListingRecord{
		MLSNumber:    "VIC-1009",
		BuildingName: "Shoal Point",
		Neighborhood: "James Bay",
		SquareFeet:   &sqft,
		Price:        floatPtr(900000),
	})
	require.NoError(t, err)

	detail, err := svc.GetListing("VIC-1009")
	require.NoError(t, err)
	assert.Equal(t, "Shoal Point", detail.BuildingName)
	assert.Equal(t, "James Bay", detail.NeighborhoodName)
	require.NotNil(t, detail.CurrentPrice)
	assert.Equal(t, 900000.0, *detail.CurrentPrice)
	require.NotNil(t, detail.PricePerSqft)
	assert.InDelta(t, 1000.0, *detail.PricePerSqft, 0.001)
	assert.Len(t, detail.PriceHistory, 1)
}

func TestGetListingNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetListing("NO-SUCH")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListListingsDefaultsToActive(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpsertListing(ListingRecord{MLSNumber: "VIC-1010", BuildingName: "The Falls", Price: floatPtr(400000)})
	require.NoError(t, err)
	_, err = svc.UpsertListing(ListingRecord{MLSNumber: "VIC-1011", BuildingName: "The Falls", Price: floatPtr(450000)})
	require.NoError(t, err)

	_, err = svc.SetStatus("VIC-1011", models.StatusCancelled, nil, nil)
	require.NoError(t, err)

	list, err := svc.ListListings(ListingFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Listings, 1)
	require.NotNil(t, list.Listings[0].MLSNumber)
	assert.Equal(t, "VIC-1010", *list.Listings[0].MLSNumber)

	all, err := svc.ListListings(ListingFilters{Status: string(models.StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)
}

func TestListListingsPriceFilter(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpsertListing(ListingRecord{MLSNumber: "VIC-1012", BuildingName: "A", Price: floatPtr(300000)})
	require.NoError(t, err)
	_, err = svc.UpsertListing(ListingRecord{MLSNumber: "VIC-1013", BuildingName: "B", Price: floatPtr(700000)})
	require.NoError(t, err)

	list, err := svc.ListListings(ListingFilters{MinPrice: floatPtr(500000)})
	require.NoError(t, err)
	require.Len(t, list.Listings, 1)
	assert.Equal(t, "VIC-1013", *list.Listings[0].MLSNumber)
}
