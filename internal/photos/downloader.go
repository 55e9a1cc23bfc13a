package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"condo-tracker/internal/logger"
	"condo-tracker/internal/models"
)

// errRateLimited signals the outbound rate limit is exhausted and the
// remaining downloads should be deferred to the background queue.
var errRateLimited = errors.New("photo fetch rate limit exhausted")

// DownloadListingPhotos fetches photos for a listing, bounded by ctx.
// Photos that cannot be fetched in time are queued for the background
// worker. Returns how many were downloaded immediately.
func (s *Service) DownloadListingPhotos(ctx context.Context, listingID uint, mlsNumber string, urls []string) (int, error) {
	return s.downloadAll(ctx, models.PhotoOwnerListing, mlsNumber, s.listingDir(mlsNumber), urls,
		func(position int, localPath string) error {
			photo := models.ListingPhoto{
				ListingID:    listingID,
				PhotoURL:     localPath,
				DisplayOrder: position,
			}
			return s.db.Create(&photo).Error
		})
}

// DownloadSalePhotos fetches photos for a historical sale, bounded by ctx
func (s *Service) DownloadSalePhotos(ctx context.Context, saleID uint, urls []string) (int, error) {
	ownerKey := fmt.Sprintf("%d", saleID)
	return s.downloadAll(ctx, models.PhotoOwnerSale, ownerKey, s.saleDir(saleID), urls,
		func(position int, localPath string) error {
			photo := models.SalePhoto{
				SaleID:       saleID,
				PhotoURL:     localPath,
				DisplayOrder: position,
			}
			return s.db.Create(&photo).Error
		})
}

// downloadAll walks the photo URLs in order, deferring the remainder to
// the queue when the context expires or the rate limit is exhausted
func (s *Service) downloadAll(ctx context.Context, ownerKind, ownerKey, dir string, urls []string, record func(position int, localPath string) error) (int, error) {
	if len(urls) > s.maxPhotos {
		urls = urls[:s.maxPhotos]
	}
	if len(urls) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create photo directory %s: %w", dir, err)
	}

	downloaded := 0
	for i, photoURL := range urls {
		position := i + 1

		if ctx.Err() != nil {
			s.enqueue(ownerKind, ownerKey, urls[i:], position)
			logger.Info("Deferred photo downloads to queue",
				zap.String("owner_kind", ownerKind),
				zap.String("owner_key", ownerKey),
				zap.Int("deferred", len(urls)-i))
			return downloaded, nil
		}

		localPath, err := s.fetchPhoto(ctx, photoURL, dir, position)
		if err != nil {
			if errors.Is(err, errRateLimited) {
				s.enqueue(ownerKind, ownerKey, urls[i:], position)
				logger.Info("Rate limited, deferred photo downloads to queue",
					zap.String("owner_key", ownerKey),
					zap.Int("deferred", len(urls)-i))
				return downloaded, nil
			}
			logger.Warn("Photo download failed",
				zap.String("url", photoURL), zap.Error(err))
			s.enqueue(ownerKind, ownerKey, []string{photoURL}, position)
			continue
		}

		if err := record(position, localPath); err != nil {
			logger.Error("Failed to record photo", err, zap.String("path", localPath))
			continue
		}
		downloaded++
	}

	return downloaded, nil
}

// fetchPhoto downloads one photo to dir, retrying transient failures
func (s *Service) fetchPhoto(ctx context.Context, photoURL, dir string, position int) (string, error) {
	if s.limiter != nil && !s.limiter.AllowRequest() {
		return "", errRateLimited
	}

	var data []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize+1))
		if err != nil {
			return err
		}
		if int64(len(body)) > s.maxSize {
			return backoff.Permanent(fmt.Errorf("photo exceeds size limit of %d bytes", s.maxSize))
		}

		data = body
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%02d%s", position, photoExtension(data, photoURL))
	fullPath := filepath.Join(dir, fileName)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}

	rel, err := filepath.Rel(s.storagePath, fullPath)
	if err != nil {
		rel = fullPath
	}
	return filepath.ToSlash(rel), nil
}

// photoExtension sniffs the file extension from content, falling back to
// the URL path and then ".jpg"
func photoExtension(data []byte, photoURL string) string {
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	if u, err := url.Parse(photoURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return ext
		}
	}
	return ".jpg"
}

// enqueue records pending photo downloads for the background worker
func (s *Service) enqueue(ownerKind, ownerKey string, urls []string, startPosition int) {
	for i, photoURL := range urls {
		item := models.PhotoDownloadQueue{
			OwnerKind: ownerKind,
			OwnerKey:  ownerKey,
			PhotoURL:  photoURL,
			Position:  startPosition + i,
			Status:    models.PhotoQueuePending,
		}
		if err := s.db.Create(&item).Error; err != nil {
			logger.Error("Failed to enqueue photo download", err,
				zap.String("url", photoURL))
		}
	}
}

// ProcessQueueItem downloads a single queued photo. A missing owner is
// not an error; the item is simply dropped.
func (s *Service) ProcessQueueItem(ctx context.Context, item *models.PhotoDownloadQueue) error {
	switch item.OwnerKind {
	case models.PhotoOwnerListing:
		var listing models.Listing
		err := s.db.Where("mls_number = ?", item.OwnerKey).First(&listing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("Queued photo owner no longer exists",
				zap.String("owner_key", item.OwnerKey))
			return nil
		}
		if err != nil {
			return err
		}

		dir := s.listingDir(item.OwnerKey)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		localPath, err := s.fetchPhoto(ctx, item.PhotoURL, dir, item.Position)
		if err != nil {
			return err
		}
		photo := models.ListingPhoto{
			ListingID:    listing.ID,
			PhotoURL:     localPath,
			DisplayOrder: item.Position,
		}
		return s.db.Create(&photo).Error

	case models.PhotoOwnerSale:
		var sale models.HistoricalSale
		err := s.db.Where("id = ?", item.OwnerKey).First(&sale).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		dir := s.saleDir(sale.ID)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		localPath, err := s.fetchPhoto(ctx, item.PhotoURL, dir, item.Position)
		if err != nil {
			return err
		}
		photo := models.SalePhoto{
			SaleID:       sale.ID,
			PhotoURL:     localPath,
			DisplayOrder: item.Position,
		}
		return s.db.Create(&photo).Error

	default:
		return fmt.Errorf("unknown photo owner kind %q", item.OwnerKind)
	}
}

// UpsertWaitContext builds the bounded-wait context used for inline
// photo downloads during an upsert
func UpsertWaitContext(parent context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, wait)
}
