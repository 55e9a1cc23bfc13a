package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"condo-tracker/internal/logger"
	"condo-tracker/internal/models"
	"condo-tracker/internal/photos"
)

// PhotoQueueWorker drains the photo_download_queue in the background so
// deferred photo downloads eventually complete
type PhotoQueueWorker struct {
	db           *gorm.DB
	photos       *photos.Service
	stopChan     chan struct{}
	isRunning    bool
	pollInterval time.Duration
}

// NewPhotoQueueWorker creates a new queue worker
func NewPhotoQueueWorker(db *gorm.DB, photoSvc *photos.Service) *PhotoQueueWorker {
	return &PhotoQueueWorker{
		db:           db,
		photos:       photoSvc,
		stopChan:     make(chan struct{}),
		pollInterval: 30 * time.Second,
	}
}

// Start starts the queue worker
func (w *PhotoQueueWorker) Start() {
	if w.isRunning {
		logger.Warn("PhotoQueueWorker: already running")
		return
	}

	w.isRunning = true
	logger.Info("PhotoQueueWorker: started",
		zap.Duration("poll_interval", w.pollInterval))

	go w.run()
}

// Stop stops the queue worker
func (w *PhotoQueueWorker) Stop() {
	if !w.isRunning {
		return
	}

	w.isRunning = false
	close(w.stopChan)
}

// run is the main worker loop
func (w *PhotoQueueWorker) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			logger.Info("PhotoQueueWorker: stopped")
			return
		case <-ticker.C:
			w.processNextItem()
		}
	}
}

// processNextItem claims and processes the next due queue item
func (w *PhotoQueueWorker) processNextItem() {
	var item models.PhotoDownloadQueue
	now := time.Now()

	result := w.db.Where("status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
		models.PhotoQueuePending, now).
		Order("created_at ASC").
		First(&item)

	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			logger.Error("PhotoQueueWorker: failed to fetch next queue item", result.Error)
		}
		return
	}

	w.processItem(&item)
}

// processItem downloads a single queued photo with retry bookkeeping
func (w *PhotoQueueWorker) processItem(item *models.PhotoDownloadQueue) {
	logger.Debug("PhotoQueueWorker: processing item",
		zap.Int64("id", item.ID),
		zap.String("url", item.PhotoURL),
		zap.Int("attempt", item.Attempts+1))

	item.Status = models.PhotoQueueProcessing
	item.Attempts++
	if err := w.db.Save(item).Error; err != nil {
		logger.Error("PhotoQueueWorker: failed to mark item processing", err)
		return
	}

	err := w.photos.ProcessQueueItem(context.Background(), item)
	if err != nil {
		w.handleError(item, err)
		return
	}

	item.Status = models.PhotoQueueDone
	item.LastError = ""
	completedAt := time.Now()
	item.CompletedAt = &completedAt
	item.NextRetryAt = nil

	if err := w.db.Save(item).Error; err != nil {
		logger.Error("PhotoQueueWorker: failed to mark item done", err)
	}
}

// handleError schedules a retry or marks the item failed
func (w *PhotoQueueWorker) handleError(item *models.PhotoDownloadQueue, err error) {
	logger.Warn("PhotoQueueWorker: download failed",
		zap.Int64("id", item.ID), zap.Error(err))

	if item.Attempts >= models.MaxPhotoRetryAttempts {
		item.Status = models.PhotoQueueFailed
		item.LastError = fmt.Sprintf("Max retries exceeded (%d): %v", item.Attempts, err)
		completedAt := time.Now()
		item.CompletedAt = &completedAt
		item.NextRetryAt = nil
	} else {
		delay := models.NextPhotoRetryDelay(item.Attempts - 1)
		nextRetry := time.Now().Add(delay)
		item.Status = models.PhotoQueuePending
		item.LastError = err.Error()
		item.NextRetryAt = &nextRetry
	}

	if err := w.db.Save(item).Error; err != nil {
		logger.Error("PhotoQueueWorker: failed to save retry status", err)
	}
}

// GetQueueStats returns current queue statistics
func (w *PhotoQueueWorker) GetQueueStats() map[string]interface{} {
	var pending, processing, done, failed int64

	w.db.Model(&models.PhotoDownloadQueue{}).Where("status = ?", models.PhotoQueuePending).Count(&pending)
	w.db.Model(&models.PhotoDownloadQueue{}).Where("status = ?", models.PhotoQueueProcessing).Count(&processing)
	w.db.Model(&models.PhotoDownloadQueue{}).Where("status = ?", models.PhotoQueueDone).Count(&done)
	w.db.Model(&models.PhotoDownloadQueue{}).Where("status = ?", models.PhotoQueueFailed).Count(&failed)

	return map[string]interface{}{
		"pending":    pending,
		"processing": processing,
		"done":       done,
		"failed":     failed,
		"is_running": w.isRunning,
	}
}
