package photos

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"condo-tracker/internal/config"
	"condo-tracker/internal/logger"
	"condo-tracker/internal/models"
	"condo-tracker/internal/ratelimit"
)

const (
	listingsDirName = "listings"
	salesDirName    = "historical_sales"
)

// Service manages photo storage for listings and historical sales.
// Files live under <storagePath>/listings/<mls>/ and
// <storagePath>/historical_sales/<sale-id>/.
type Service struct {
	db          *gorm.DB
	storagePath string
	maxSize     int64
	maxPhotos   int
	client      *http.Client
	limiter     *ratelimit.RateLimiter
}

// NewService creates the photo service and its storage directories
func NewService(db *gorm.DB, cfg config.PhotosConfig, limiter *ratelimit.RateLimiter) (*Service, error) {
	svc := &Service{
		db:          db,
		storagePath: cfg.StoragePath,
		maxSize:     cfg.MaxPhotoSizeBytes(),
		maxPhotos:   cfg.MaxPhotosPerEntity,
		client: &http.Client{
			Timeout: cfg.DownloadTimeout(),
		},
		limiter: limiter,
	}

	for _, dir := range []string{svc.listingsRoot(), svc.salesRoot()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create photo directory %s: %w", dir, err)
		}
	}

	return svc, nil
}

func (s *Service) listingsRoot() string {
	return filepath.Join(s.storagePath, listingsDirName)
}

func (s *Service) salesRoot() string {
	return filepath.Join(s.storagePath, salesDirName)
}

// sanitizeKey strips characters that are unsafe in a directory name
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *Service) listingDir(mlsNumber string) string {
	return filepath.Join(s.listingsRoot(), sanitizeKey(mlsNumber))
}

func (s *Service) saleDir(saleID uint) string {
	return filepath.Join(s.salesRoot(), strconv.FormatUint(uint64(saleID), 10))
}

// countFiles counts regular files under dir, including subdirectories
func countFiles(dir string) int {
	count := 0
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

// purgeDir removes a photo directory and returns how many files it held
func purgeDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}
	count := countFiles(dir)
	if err := os.RemoveAll(dir); err != nil {
		return 0, err
	}
	return count, nil
}

// PurgeListingPhotos removes all stored photo files for a listing
func (s *Service) PurgeListingPhotos(mlsNumber string) (int, error) {
	count, err := purgeDir(s.listingDir(mlsNumber))
	if err != nil {
		return 0, fmt.Errorf("failed to purge photos for listing %s: %w", mlsNumber, err)
	}
	if count > 0 {
		logger.Info("Purged listing photos", zap.String("mls_number", mlsNumber), zap.Int("files", count))
	}
	return count, nil
}

// PurgeListing removes a listing's stored photo files and its photo rows.
// The listing itself is untouched; a missing listing still purges any files
// left under its key.
func (s *Service) PurgeListing(mlsNumber string) (int, error) {
	count, err := s.PurgeListingPhotos(mlsNumber)
	if err != nil {
		return count, err
	}

	var listing models.Listing
	err = s.db.Select("id").Where("mls_number = ?", mlsNumber).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return count, nil
	}
	if err != nil {
		return count, fmt.Errorf("failed to look up listing %s: %w", mlsNumber, err)
	}

	if err := s.db.Where("listing_id = ?", listing.ID).Delete(&models.ListingPhoto{}).Error; err != nil {
		return count, fmt.Errorf("failed to delete photo rows for listing %s: %w", mlsNumber, err)
	}

	return count, nil
}

// PurgeSalePhotos removes all stored photo files for a historical sale
func (s *Service) PurgeSalePhotos(saleID uint) (int, error) {
	count, err := purgeDir(s.saleDir(saleID))
	if err != nil {
		return 0, fmt.Errorf("failed to purge photos for sale %d: %w", saleID, err)
	}
	return count, nil
}

// ReconcileResult summarizes an orphaned-photo reconciliation run
type ReconcileResult struct {
	ListingsDeleted   int      `json:"listings_deleted"`
	HistoricalDeleted int      `json:"historical_deleted"`
	Errors            []string `json:"errors"`
}

// PurgeOrphaned deletes photo directories whose owning listing or
// historical sale no longer exists. Safe to run repeatedly.
func (s *Service) PurgeOrphaned() *ReconcileResult {
	result := &ReconcileResult{Errors: []string{}}

	var mlsNumbers []string
	if err := s.db.Model(&models.Listing{}).Where("mls_number IS NOT NULL").Pluck("mls_number", &mlsNumbers).Error; err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Could not fetch listings: %v", err))
	} else {
		live := make(map[string]bool, len(mlsNumbers))
		for _, mls := range mlsNumbers {
			live[sanitizeKey(mls)] = true
		}
		deleted, errs := purgeOrphanedDirs(s.listingsRoot(), live)
		result.ListingsDeleted = deleted
		result.Errors = append(result.Errors, errs...)
	}

	var saleIDs []uint
	if err := s.db.Model(&models.HistoricalSale{}).Pluck("id", &saleIDs).Error; err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Could not fetch historical sales: %v", err))
	} else {
		live := make(map[string]bool, len(saleIDs))
		for _, id := range saleIDs {
			live[strconv.FormatUint(uint64(id), 10)] = true
		}
		deleted, errs := purgeOrphanedDirs(s.salesRoot(), live)
		result.HistoricalDeleted = deleted
		result.Errors = append(result.Errors, errs...)
	}

	logger.Info("Photo reconciliation complete",
		zap.Int("listings_deleted", result.ListingsDeleted),
		zap.Int("historical_deleted", result.HistoricalDeleted),
		zap.Int("errors", len(result.Errors)))

	return result
}

// purgeOrphanedDirs removes subdirectories of root whose name is not in live
func purgeOrphanedDirs(root string, live map[string]bool) (int, []string) {
	deleted := 0
	errs := []string{}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errs
		}
		return 0, append(errs, fmt.Sprintf("Could not read %s: %v", root, err))
	}

	for _, entry := range entries {
		if !entry.IsDir() || live[entry.Name()] {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		count, err := purgeDir(dir)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Could not delete %s: %v", dir, err))
			continue
		}
		deleted += count
	}

	return deleted, errs
}
