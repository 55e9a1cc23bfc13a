package photos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"condo-tracker/internal/config"
	"condo-tracker/internal/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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
		&models.Building{},
		&models.Listing{},
		&models.HistoricalSale{},
		&models.ListingPhoto{},
		&models.SalePhoto{},
		&models.PhotoDownloadQueue{},
	))

	cfg := config.PhotosConfig{
		StoragePath:            t.TempDir(),
		MaxPhotoSizeMB:         10,
		MaxPhotosPerEntity:     20,
		DownloadTimeoutSeconds: 5,
	}
	svc, err := NewService(db, cfg, nil)
	require.NoError(t, err)

	return svc, db
}

func writePhoto(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("jpeg-bytes"), 0644))
}

func createListing(t *testing.T, db *gorm.DB, mls string) {
	t.Helper()
	listing := models.Listing{MLSNumber: &mls, Status: models.StatusActive, IsActive: true}
	require.NoError(t, db.Create(&listing).Error)
}

func TestPurgeOrphanedDeletesOnlyOrphans(t *testing.T) {
	svc, db := newTestService(t)

	createListing(t, db, "VIC-2001")
	sale := models.HistoricalSale{SalePrice: 500000}
	require.NoError(t, db.Create(&sale).Error)

	// Live artifacts
	writePhoto(t, svc.listingDir("VIC-2001"), "01.jpg")
	writePhoto(t, svc.saleDir(sale.ID), "01.jpg")

	// Orphans
	writePhoto(t, filepath.Join(svc.listingsRoot(), "VIC-GONE"), "01.jpg")
	writePhoto(t, filepath.Join(svc.listingsRoot(), "VIC-GONE"), "02.jpg")
	writePhoto(t, filepath.Join(svc.salesRoot(), "99999"), "01.jpg")

	result := svc.PurgeOrphaned()

	assert.Equal(t, 2, result.ListingsDeleted)
	assert.Equal(t, 1, result.HistoricalDeleted)
	assert.Empty(t, result.Errors)

	_, err := os.Stat(svc.listingDir("VIC-2001"))
	assert.NoError(t, err)
	_, err = os.Stat(svc.saleDir(sale.ID))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(svc.listingsRoot(), "VIC-GONE"))
	assert.True(t, os.IsNotExist(err))
}

func TestPurgeOrphanedIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)

	writePhoto(t, filepath.Join(svc.listingsRoot(), "VIC-GONE"), "01.jpg")

	first := svc.PurgeOrphaned()
	assert.Equal(t, 1, first.ListingsDeleted)

	second := svc.PurgeOrphaned()
	assert.Equal(t, 0, second.ListingsDeleted)
	assert.Equal(t, 0, second.HistoricalDeleted)
	assert.Empty(t, second.Errors)
}

func TestPurgeOrphanedWithEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.PurgeOrphaned()
	assert.Equal(t, 0, result.ListingsDeleted)
	assert.Equal(t, 0, result.HistoricalDeleted)
	assert.Empty(t, result.Errors)
}

func TestPurgeListingPhotosCountsFiles(t *testing.T) {
	svc, _ := newTestService(t)

	writePhoto(t, svc.listingDir("VIC-2002"), "01.jpg")
	writePhoto(t, svc.listingDir("VIC-2002"), "02.jpg")

	count, err := svc.PurgeListingPhotos("VIC-2002")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A second purge finds nothing
	count, err = svc.PurgeListingPhotos("VIC-2002")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPurgeListingRemovesFilesAndRows(t *testing.T) {
	svc, db := newTestService(t)

	createListing(t, db, "VIC-2004")
	var listing models.Listing
	require.NoError(t, db.Where("mls_number = ?", "VIC-2004").First(&listing).Error)

	photo := models.ListingPhoto{ListingID: listing.ID, PhotoURL: "listings/VIC-2004/01.jpg", DisplayOrder: 1}
	require.NoError(t, db.Create(&photo).Error)
	writePhoto(t, svc.listingDir("VIC-2004"), "01.jpg")

	count, err := svc.PurgeListing("VIC-2004")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = os.Stat(svc.listingDir("VIC-2004"))
	assert.True(t, os.IsNotExist(err))

	var rows int64
	require.NoError(t, db.Model(&models.ListingPhoto{}).Where("listing_id = ?", listing.ID).Count(&rows).Error)
	assert.Equal(t, int64(0), rows)

	// The listing itself is untouched
	require.NoError(t, db.First(&models.Listing{}, listing.ID).Error)
}

func TestPurgeListingWithoutListingStillClearsFiles(t *testing.T) {
	svc, _ := newTestService(t)

	writePhoto(t, svc.listingDir("VIC-GONE"), "01.jpg")

	count, err := svc.PurgeListing("VIC-GONE")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSanitizeKeyStripsUnsafeCharacters(t *testing.T) {
	assert.Equal(t, "VIC-1001", sanitizeKey("VIC-1001"))
	assert.Equal(t, "VIC1001", sanitizeKey("VIC/..\\1001"))
	assert.Equal(t, "a_b-c9", sanitizeKey("a_b-c9!"))
}

func TestEnqueueRecordsPendingDownloads(t *testing.T) {
	svc, db := newTestService(t)

	svc.enqueue(models.PhotoOwnerListing, "VIC-2003",
		[]string{"http://example.com/a.jpg", "http://example.com/b.jpg"}, 3)

	var items []models.PhotoDownloadQueue
	require.NoError(t, db.Order("position").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, models.PhotoQueuePending, items[0].Status)
	assert.Equal(t, 3, items[0].Position)
	assert.Equal(t, 4, items[1].Position)
	assert.Equal(t, "VIC-2003", items[0].OwnerKey)
}
