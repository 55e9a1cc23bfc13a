package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"condo-tracker/internal/buildings"
	"condo-tracker/internal/database"
	"condo-tracker/internal/models"
	"condo-tracker/internal/tracker"
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

type recordingPurger struct {
	purged []string
}

func (p *recordingPurger) PurgeListingPhotos(mlsNumber string) (int, error) {
	p.purged = append(p.purged, mlsNumber)
	return 0, nil
}

func newListingRouter(t *testing.T) (*gin.Engine, *tracker.Service, *recordingPurger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	purger := &recordingPurger{}
	trackerSvc := tracker.NewService(db, buildings.NewResolver(db), purger)
	h := NewListingHandler(trackerSvc, nil, nil, 0)

	r := gin.New()
	r.PATCH("/api/listings/:mls", h.PatchListing)
	r.DELETE("/api/listings/:mls", h.DeleteListing)
	return r, trackerSvc, purger
}

func TestDeleteListingDoesNotPurgePhotosByDefault(t *testing.T) {
	r, svc, purger := newListingRouter(t)

	_, err := svc.UpsertListing(tracker.ListingRecord{
		MLSNumber:    "VIC-3001",
		BuildingName: "The Falls",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/listings/VIC-3001", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, purger.purged)
}

func TestDeleteListingPurgesPhotosWhenRequested(t *testing.T) {
	r, svc, purger := newListingRouter(t)

	_, err := svc.UpsertListing(tracker.ListingRecord{
		MLSNumber:    "VIC-3002",
		BuildingName: "The Falls",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/listings/VIC-3002?purge_photos=true", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"VIC-3002"}, purger.purged)
}

func TestPatchListingEndpointUpdatesPresentFields(t *testing.T) {
	r, svc, _ := newListingRouter(t)

	bedrooms := 1
	_, err := svc.UpsertListing(tracker.ListingRecord{
		MLSNumber:    "VIC-3003",
		BuildingName: "The Juliet",
		Bedrooms:     &bedrooms,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/listings/VIC-3003",
		strings.NewReader(`{"days_on_market": 30}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	detail, err := svc.GetListing("VIC-3003")
	require.NoError(t, err)
	require.NotNil(t, detail.DaysOnMarket)
	assert.Equal(t, 30, *detail.DaysOnMarket)
	require.NotNil(t, detail.Bedrooms)
	assert.Equal(t, 1, *detail.Bedrooms)
}

func TestPatchListingEndpointUnknownListing(t *testing.T) {
	r, _, _ := newListingRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/listings/NO-SUCH",
		strings.NewReader(`{"description": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
