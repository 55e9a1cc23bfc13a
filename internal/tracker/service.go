package tracker

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"condo-tracker/internal/buildings"
	"condo-tracker/internal/logger"
	"condo-tracker/internal/models"
)

// PhotoPurger removes stored photo artifacts for a listing. Implemented by
// the photos service; injected so listing deletion can purge without the
// tracker owning storage mechanics.
type PhotoPurger interface {
	PurgeListingPhotos(mlsNumber string) (int, error)
}

// Service is the listing tracking engine. All mutations for one call are
// applied in a single transaction.
type Service struct {
	db       *gorm.DB
	resolver *buildings.Resolver
	purger   PhotoPurger
}

// NewService creates a new tracker service
func NewService(db *gorm.DB, resolver *buildings.Resolver, purger PhotoPurger) *Service {
	return &Service{db: db, resolver: resolver, purger: purger}
}

// dateOnly truncates a timestamp to its date component
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// latestPrice returns the most recent price entry for a listing, or nil when
// no price has been recorded yet.
func latestPrice(tx *gorm.DB, listingID uint) (*models.PriceHistoryEntry, error) {
	var entry models.PriceHistoryEntry
	err := tx.Where("listing_id = ?", listingID).
		Order("recorded_date DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// recordPrice appends a price observation for a listing. Re-recording the
// same (listing, date, price) returns the existing entry id without
// inserting; the second return reports whether a row was inserted. A generic
// "Price Change" hint is reclassified against the most recent prior entry;
// "Initial" and "Sold" are stored as given.
func (s *Service) recordPrice(tx *gorm.DB, listingID uint, price float64, date *time.Time, hint models.PriceEventType) (uint, bool, error) {
	recordedDate := dateOnly(time.Now())
	if date != nil {
		recordedDate = dateOnly(*date)
	}

	var existing models.PriceHistoryEntry
	err := tx.Where("listing_id = ? AND recorded_date = ? AND price = ?", listingID, recordedDate, price).
		First(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("failed to check existing price: %w", err)
	}

	eventType := hint
	if hint == models.PriceEventChange {
		prev, err := latestPrice(tx, listingID)
		if err != nil {
			return 0, false, fmt.Errorf("failed to load previous price: %w", err)
		}
		if prev != nil {
			if price < prev.Price {
				eventType = models.PriceEventDrop
			} else if price > prev.Price {
				eventType = models.PriceEventIncrease
			}
		}
	}

	entry := models.PriceHistoryEntry{
		ListingID:    listingID,
		Price:        price,
		RecordedDate: recordedDate,
		EventType:    eventType,
	}
	if err := tx.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return 0, false, fmt.Errorf("listing %d: %w", listingID, ErrNotFound)
		}
		return 0, false, fmt.Errorf("failed to record price: %w", err)
	}

	return entry.ID, true, nil
}

// logEvent appends a tracking event row for a listing mutation
func logEvent(tx *gorm.DB, listingID uint, eventType, details string) error {
	event := models.TrackingEvent{
		ListingID: listingID,
		EventType: eventType,
		Details:   details,
	}
	return tx.Create(&event).Error
}

// UpsertListing creates or updates a listing addressed by MLS number.
// Building resolution, the listing write, any price-history write, and the
// tracking event commit together or not at all.
func (s *Service) UpsertListing(rec ListingRecord) (*UpsertResult, error) {
	if rec.MLSNumber == "" {
		return nil, fmt.Errorf("mls_number is required: %w", ErrValidation)
	}

	status := rec.Status
	if status == "" {
		status = models.StatusActive
	}
	platform := rec.SourcePlatform
	if platform == "" {
		platform = "Manual"
	}

	var result UpsertResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		buildingID, err := s.resolver.ResolveTx(tx, rec.BuildingName, rec.Address, rec.Neighborhood)
		if err != nil {
			return err
		}

		now := time.Now()

		var existing models.Listing
		err = tx.Where("mls_number = ?", rec.MLSNumber).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up listing: %w", err)
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			mls := rec.MLSNumber
			listing := models.Listing{
				MLSNumber:        &mls,
				BuildingID:       buildingID,
				UnitNumber:       rec.UnitNumber,
				Status:           status,
				Bedrooms:         rec.Bedrooms,
				Bathrooms:        rec.Bathrooms,
				SquareFeet:       rec.SquareFeet,
				PropertyType:     rec.PropertyType,
				ListingDate:      rec.ListingDate,
				DaysOnMarket:     rec.DaysOnMarket,
				Description:      rec.Description,
				ListingAgent:     rec.ListingAgent,
				ListingBrokerage: rec.ListingBrokerage,
				SourceURL:        rec.SourceURL,
				SourcePlatform:   platform,
				IsActive:         true,
				FirstSeenAt:      now,
				LastSeenAt:       now,
			}
			if err := tx.Create(&listing).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// Concurrent first sighting of the same MLS number
					return fmt.Errorf("listing %s already created: %w", rec.MLSNumber, ErrConflict)
				}
				return fmt.Errorf("failed to create listing: %w", err)
			}

			priceRecorded := false
			if rec.Price != nil {
				if _, _, err := s.recordPrice(tx, listing.ID, *rec.Price, rec.ListingDate, models.PriceEventInitial); err != nil {
					return err
				}
				priceRecorded = true
			}

			if err := logEvent(tx, listing.ID, models.EventDiscovered, fmt.Sprintf("Found on %s", platform)); err != nil {
				return fmt.Errorf("failed to log event: %w", err)
			}

			result = UpsertResult{
				ListingID:     listing.ID,
				MLSNumber:     rec.MLSNumber,
				IsNew:         true,
				PriceRecorded: priceRecorded,
			}
			return nil
		}

		// Re-sighting: overwrite all mutable fields and force active
		updates := map[string]interface{}{
			"building_id":       buildingID,
			"unit_number":       rec.UnitNumber,
			"status":            status,
			"bedrooms":          rec.Bedrooms,
			"bathrooms":         rec.Bathrooms,
			"square_feet":       rec.SquareFeet,
			"property_type":     rec.PropertyType,
			"listing_date":      rec.ListingDate,
			"days_on_market":    rec.DaysOnMarket,
			"description":       rec.Description,
			"listing_agent":     rec.ListingAgent,
			"listing_brokerage": rec.ListingBrokerage,
			"source_url":        rec.SourceURL,
			"source_platform":   platform,
			"is_active":         true,
			"last_seen_at":      now,
			"updated_at":        now,
		}
		if err := tx.Model(&models.Listing{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update listing: %w", err)
		}

		priceRecorded := false
		if rec.Price != nil {
			current, err := latestPrice(tx, existing.ID)
			if err != nil {
				return fmt.Errorf("failed to load current price: %w", err)
			}
			if current == nil || current.Price != *rec.Price {
				if _, _, err := s.recordPrice(tx, existing.ID, *rec.Price, nil, models.PriceEventChange); err != nil {
					return err
				}
				priceRecorded = true
			}
		}

		if err := logEvent(tx, existing.ID, models.EventUpdated, fmt.Sprintf("Updated from %s", platform)); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}

		result = UpsertResult{
			ListingID:     existing.ID,
			MLSNumber:     rec.MLSNumber,
			IsNew:         false,
			PriceRecorded: priceRecorded,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("listing upserted",
		zap.String("mls_number", result.MLSNumber),
		zap.Bool("is_new", result.IsNew),
		zap.Bool("price_recorded", result.PriceRecorded))

	return &result, nil
}

// PatchListing applies a partial update to a listing addressed by MLS number.
// Only fields present in the patch are written; omitted fields keep their
// stored values. Returns false when no listing exists for the MLS number.
func (s *Service) PatchListing(mlsNumber string, patch ListingPatch) (bool, error) {
	var listing models.Listing
	err := s.db.Where("mls_number = ?", mlsNumber).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up listing: %w", err)
	}

	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Bedrooms != nil {
		updates["bedrooms"] = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		updates["bathrooms"] = *patch.Bathrooms
	}
	if patch.SquareFeet != nil {
		updates["square_feet"] = *patch.SquareFeet
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.ListingAgent != nil {
		updates["listing_agent"] = *patch.ListingAgent
	}
	if patch.DaysOnMarket != nil {
		updates["days_on_market"] = *patch.DaysOnMarket
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if len(updates) == 0 {
		return true, nil
	}
	updates["updated_at"] = time.Now()

	if err := s.db.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("failed to patch listing: %w", err)
	}

	return true, nil
}

// SetStatus applies a status change to a listing. Returns false when no
// listing exists for the MLS number. Terminal statuses (Sold, Expired,
// Cancelled) clear the active flag; any other value sets it. A sale price on
// a Sold transition is recorded as a "Sold" price entry at the sale date.
func (s *Service) SetStatus(mlsNumber string, status models.ListingStatus, salePrice *float64, saleDate *time.Time) (bool, error) {
	var listing models.Listing
	err := s.db.Where("mls_number = ?", mlsNumber).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up listing: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":       status,
			"is_active":    !status.IsTerminal(),
			"last_seen_at": now,
			"updated_at":   now,
		}
		if err := tx.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		if status == models.StatusSold && salePrice != nil {
			if _, _, err := s.recordPrice(tx, listing.ID, *salePrice, saleDate, models.PriceEventSold); err != nil {
				return err
			}
		}

		return logEvent(tx, listing.ID, models.EventStatusChange, fmt.Sprintf("Status changed to %s", status))
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

// RecordPrice records a price point for a listing addressed by MLS number and
// reports the delta against the previous most-recent entry.
func (s *Service) RecordPrice(mlsNumber string, price float64, date *time.Time, eventType models.PriceEventType, notes string) (*PriceResult, error) {
	var listing models.Listing
	err := s.db.Where("mls_number = ?", mlsNumber).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("listing %s: %w", mlsNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up listing: %w", err)
	}

	if eventType == "" {
		eventType = models.PriceEventChange
	}

	var result PriceResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		prev, err := latestPrice(tx, listing.ID)
		if err != nil {
			return fmt.Errorf("failed to load previous price: %w", err)
		}

		id, created, err := s.recordPrice(tx, listing.ID, price, date, eventType)
		if err != nil {
			return err
		}

		// Entries are append-only; a dedup hit keeps its original notes
		if notes != "" && created {
			if err := tx.Model(&models.PriceHistoryEntry{}).Where("id = ?", id).
				Update("notes", notes).Error; err != nil {
				return fmt.Errorf("failed to set notes: %w", err)
			}
		}

		result = PriceResult{PriceHistoryID: id}
		if prev != nil {
			prevPrice := prev.Price
			change := price - prevPrice
			result.PreviousPrice = &prevPrice
			result.PriceChange = &change
			if prevPrice != 0 {
				percent := change / prevPrice * 100
				result.PercentChange = &percent
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteListing removes a listing; price history, tracking events and photo
// rows cascade. Returns false when no listing exists for the MLS number.
func (s *Service) DeleteListing(mlsNumber string, purgePhotos bool) (bool, error) {
	var listing models.Listing
	err := s.db.Where("mls_number = ?", mlsNumber).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up listing: %w", err)
	}

	if purgePhotos && s.purger != nil {
		if n, err := s.purger.PurgeListingPhotos(mlsNumber); err != nil {
			logger.Warn("failed to purge listing photos",
				zap.String("mls_number", mlsNumber), zap.Error(err))
		} else if n > 0 {
			logger.Info("purged listing photos",
				zap.String("mls_number", mlsNumber), zap.Int("files", n))
		}
	}

	if err := s.db.Select("PriceHistory", "TrackingEvents", "Photos").Delete(&listing).Error; err != nil {
		return false, fmt.Errorf("failed to delete listing: %w", err)
	}

	return true, nil
}
