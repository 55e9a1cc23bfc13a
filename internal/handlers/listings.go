package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"condo-tracker/internal/models"
	"condo-tracker/internal/photos"
	"condo-tracker/internal/search"
	"condo-tracker/internal/tracker"
)

// ListingHandler handles listing tracking requests
type ListingHandler struct {
	tracker    *tracker.Service
	photos     *photos.Service
	indexer    *search.Indexer
	upsertWait time.Duration
}

// NewListingHandler creates a new listing handler
func NewListingHandler(trackerSvc *tracker.Service, photoSvc *photos.Service, indexer *search.Indexer, upsertWait time.Duration) *ListingHandler {
	return &ListingHandler{
		tracker:    trackerSvc,
		photos:     photoSvc,
		indexer:    indexer,
		upsertWait: upsertWait,
	}
}

// upsertListingRequest is the JSON payload for an upsert. Dates are
// YYYY-MM-DD strings.
type upsertListingRequest struct {
	MLSNumber    string   `json:"mls_number"`
	BuildingName string   `json:"building_name"`
	Address      string   `json:"address"`
	Neighborhood string   `json:"neighborhood"`
	UnitNumber   string   `json:"unit_number"`
	Status       string   `json:"status"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms"`
	SquareFeet   *int     `json:"square_feet"`
	PropertyType string   `json:"property_type"`
	ListingDate  string   `json:"listing_date"`
	DaysOnMarket *int     `json:"days_on_market"`
	Description  string   `json:"description"`

	ListingAgent     string `json:"listing_agent"`
	ListingBrokerage string `json:"listing_brokerage"`
	SourceURL        string `json:"source_url"`
	SourcePlatform   string `json:"source_platform"`

	Price  *float64 `json:"price"`
	Photos []string `json:"photos"`
}

// UpsertListing creates or updates a listing keyed by MLS number
func (h *ListingHandler) UpsertListing(c *gin.Context) {
	var req upsertListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listingDate, err := parseDate(req.ListingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing_date: " + err.Error()})
		return
	}

	rec := tracker.ListingRecord{
		MLSNumber:        req.MLSNumber,
		BuildingName:     req.BuildingName,
		Address:          req.Address,
		Neighborhood:     req.Neighborhood,
		UnitNumber:       req.UnitNumber,
		Status:           models.ListingStatus(req.Status),
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		SquareFeet:       req.SquareFeet,
		PropertyType:     req.PropertyType,
		ListingDate:      listingDate,
		DaysOnMarket:     req.DaysOnMarket,
		Description:      req.Description,
		ListingAgent:     req.ListingAgent,
		ListingBrokerage: req.ListingBrokerage,
		SourceURL:        req.SourceURL,
		SourcePlatform:   req.SourcePlatform,
		Price:            req.Price,
		Photos:           req.Photos,
	}

	result, err := h.tracker.UpsertListing(rec)
	if err != nil {
		respondError(c, err)
		return
	}

	photosDownloaded := 0
	if h.photos != nil && len(req.Photos) > 0 {
		ctx, cancel := photos.UpsertWaitContext(c.Request.Context(), h.upsertWait)
		photosDownloaded, _ = h.photos.DownloadListingPhotos(ctx, result.ListingID, result.MLSNumber, req.Photos)
		cancel()
	}

	h.indexer.IndexListingByID(result.ListingID)

	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"listing_id":        result.ListingID,
		"mls_number":        result.MLSNumber,
		"is_new":            result.IsNew,
		"price_recorded":    result.PriceRecorded,
		"photos_downloaded": photosDownloaded,
	})
}

// GetListing returns a listing with price history and photos
func (h *ListingHandler) GetListing(c *gin.Context) {
	detail, err := h.tracker.GetListing(c.Param("mls"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListListings returns listing summaries matching query filters
func (h *ListingHandler) ListListings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filters := tracker.ListingFilters{
		Status:         c.Query("status"),
		BuildingID:     queryUint(c, "building_id"),
		NeighborhoodID: queryUint(c, "neighborhood_id"),
		MinPrice:       queryFloat(c, "min_price"),
		MaxPrice:       queryFloat(c, "max_price"),
		Bedrooms:       queryInt(c, "bedrooms"),
		PropertyType:   c.Query("property_type"),
		Sort:           c.Query("sort"),
		Limit:          limit,
		Offset:         offset,
	}

	list, err := h.tracker.ListListings(filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PatchListing applies a partial update; omitted fields are left unchanged
func (h *ListingHandler) PatchListing(c *gin.Context) {
	var patch tracker.ListingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mlsNumber := c.Param("mls")
	found, err := h.tracker.PatchListing(mlsNumber, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found: " + mlsNumber})
		return
	}

	if detail, err := h.tracker.GetListing(mlsNumber); err == nil {
		h.indexer.IndexListingByID(detail.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"mls_number": mlsNumber,
		"updated":    true,
	})
}

// statusRequest is the JSON payload for a status transition
type statusRequest struct {
	Status    string   `json:"status" binding:"required"`
	SalePrice *float64 `json:"sale_price"`
	SaleDate  string   `json:"sale_date"`
}

// UpdateStatus transitions a listing's status
func (h *ListingHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale_date: " + err.Error()})
		return
	}

	mlsNumber := c.Param("mls")
	found, err := h.tracker.SetStatus(mlsNumber, models.ListingStatus(req.Status), req.SalePrice, saleDate)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found: " + mlsNumber})
		return
	}

	if detail, err := h.tracker.GetListing(mlsNumber); err == nil {
		h.indexer.IndexListingByID(detail.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"mls_number": mlsNumber,
		"status":     req.Status,
	})
}

// priceRequest is the JSON payload for a manual price point
type priceRequest struct {
	Price     float64 `json:"price" binding:"required"`
	Date      string  `json:"date"`
	EventType string  `json:"event_type"`
	Notes     string  `json:"notes"`
}

// RecordPrice appends a price history entry for a listing
func (h *ListingHandler) RecordPrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date: " + err.Error()})
		return
	}

	eventType := models.PriceEventType(req.EventType)
	if eventType == "" {
		eventType = models.PriceEventChange
	}

	result, err := h.tracker.RecordPrice(c.Param("mls"), req.Price, date, eventType, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetPriceHistory returns the price history for a listing, newest first
func (h *ListingHandler) GetPriceHistory(c *gin.Context) {
	history, err := h.tracker.GetPriceHistory(c.Param("mls"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mls_number":    c.Param("mls"),
		"price_history": history,
		"count":         len(history),
	})
}

// DeleteListing deletes a listing and optionally its photo files
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	mlsNumber := c.Param("mls")
	purgePhotos := c.DefaultQuery("purge_photos", "false") == "true"

	var detail *tracker.ListingDetail
	if h.indexer.Enabled() {
		detail, _ = h.tracker.GetListing(mlsNumber)
	}

	found, err := h.tracker.DeleteListing(mlsNumber, purgePhotos)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found: " + mlsNumber})
		return
	}

	if detail != nil {
		h.indexer.RemoveListing(detail.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"mls_number": mlsNumber,
		"deleted":    true,
	})
}

// PurgePhotos removes a listing's photo files and photo rows without
// touching the listing itself
func (h *ListingHandler) PurgePhotos(c *gin.Context) {
	mlsNumber := c.Param("mls")

	deleted, err := h.photos.PurgeListing(mlsNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mls_number":    mlsNumber,
		"deleted_count": deleted,
	})
}

// SearchListings performs a full-text search against the search index
func (h *ListingHandler) SearchListings(c *gin.Context) {
	if !h.indexer.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not enabled"})
		return
	}

	query := c.Query("q")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	hits, err := h.indexer.Search(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"listings": hits,
		"count":    len(hits),
	})
}
