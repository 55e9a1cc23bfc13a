package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"condo-tracker/internal/models"
	"condo-tracker/internal/photos"
	"condo-tracker/internal/ratelimit"
	"condo-tracker/internal/scheduler"
	"condo-tracker/internal/search"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db      *gorm.DB
	photos  *photos.Service
	worker  *scheduler.PhotoQueueWorker
	indexer *search.Indexer
	limiter *ratelimit.RateLimiter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, photoSvc *photos.Service, worker *scheduler.PhotoQueueWorker, indexer *search.Indexer, limiter *ratelimit.RateLimiter) *AdminHandler {
	return &AdminHandler{
		db:      db,
		photos:  photoSvc,
		worker:  worker,
		indexer: indexer,
		limiter: limiter,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	var activeCount, totalCount int64
	h.db.Model(&models.Listing{}).Where("is_active = ?", true).Count(&activeCount)
	h.db.Model(&models.Listing{}).Count(&totalCount)

	stats["listings"] = map[string]interface{}{
		"active": activeCount,
		"total":  totalCount,
	}

	var buildingCount, neighborhoodCount int64
	h.db.Model(&models.Building{}).Count(&buildingCount)
	h.db.Model(&models.Neighborhood{}).Count(&neighborhoodCount)
	stats["buildings"] = map[string]interface{}{
		"total":         buildingCount,
		"neighborhoods": neighborhoodCount,
	}

	var saleCount int64
	h.db.Model(&models.HistoricalSale{}).Count(&saleCount)
	stats["historical_sales"] = map[string]interface{}{
		"total": saleCount,
	}

	var priceCount int64
	h.db.Model(&models.PriceHistoryEntry{}).Count(&priceCount)
	stats["price_history"] = map[string]interface{}{
		"total": priceCount,
	}

	// Recent tracking activity (last 24 hours)
	last24h := time.Now().AddDate(0, 0, -1)
	var recentEvents int64
	h.db.Model(&models.TrackingEvent{}).Where("created_at >= ?", last24h).Count(&recentEvents)
	stats["recent_activity"] = map[string]interface{}{
		"events_last_24h": recentEvents,
	}

	if h.worker != nil {
		stats["photo_queue"] = h.worker.GetQueueStats()
	}
	if h.limiter != nil {
		stats["rate_limit"] = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// RunReconcile deletes photo directories whose owning record is gone
func (h *AdminHandler) RunReconcile(c *gin.Context) {
	result := h.photos.PurgeOrphaned()
	c.JSON(http.StatusOK, result)
}

// Reindex rebuilds the search index from the listing store
func (h *AdminHandler) Reindex(c *gin.Context) {
	if !h.indexer.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not enabled"})
		return
	}

	count, err := h.indexer.ReindexAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"indexed": count,
	})
}

// GetRecentEvents returns recent tracking events
func (h *AdminHandler) GetRecentEvents(c *gin.Context) {
	limit := 100
	if v := queryInt(c, "limit"); v != nil && *v > 0 {
		limit = *v
	}

	var events []models.TrackingEvent
	err := h.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
