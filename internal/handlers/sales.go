package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"condo-tracker/internal/photos"
	"condo-tracker/internal/sales"
)

// SaleHandler handles historical sale requests
type SaleHandler struct {
	sales      *sales.Service
	photos     *photos.Service
	upsertWait time.Duration
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleSvc *sales.Service, photoSvc *photos.Service, upsertWait time.Duration) *SaleHandler {
	return &SaleHandler{
		sales:      saleSvc,
		photos:     photoSvc,
		upsertWait: upsertWait,
	}
}

// createSaleRequest is the JSON payload for a historical sale. Dates are
// YYYY-MM-DD strings.
type createSaleRequest struct {
	BuildingName string   `json:"building_name"`
	Address      string   `json:"address"`
	Neighborhood string   `json:"neighborhood"`
	UnitNumber   string   `json:"unit_number"`
	SalePrice    float64  `json:"sale_price" binding:"required"`
	SaleDate     string   `json:"sale_date" binding:"required"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms"`
	SquareFeet   *int     `json:"square_feet"`
	PropertyType string   `json:"property_type"`
	DaysOnMarket *int     `json:"days_on_market"`
	Notes        string   `json:"notes"`
	DataSource   string   `json:"data_source"`
	Photos       []string `json:"photos"`
}

// CreateSale records a historical sale
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sale_date: " + err.Error()})
		return
	}

	sale, err := h.sales.CreateSale(sales.SaleRecord{
		BuildingName: req.BuildingName,
		Address:      req.Address,
		Neighborhood: req.Neighborhood,
		UnitNumber:   req.UnitNumber,
		SalePrice:    req.SalePrice,
		SaleDate:     *saleDate,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		SquareFeet:   req.SquareFeet,
		PropertyType: req.PropertyType,
		DaysOnMarket: req.DaysOnMarket,
		Notes:        req.Notes,
		DataSource:   req.DataSource,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	photosDownloaded := 0
	if h.photos != nil && len(req.Photos) > 0 {
		ctx, cancel := photos.UpsertWaitContext(c.Request.Context(), h.upsertWait)
		photosDownloaded, _ = h.photos.DownloadSalePhotos(ctx, sale.ID, req.Photos)
		cancel()
	}

	c.JSON(http.StatusCreated, gin.H{
		"sale":              sale,
		"photos_downloaded": photosDownloaded,
	})
}

// ListSales returns historical sale summaries matching query filters
func (h *SaleHandler) ListSales(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	startDate, err := parseDate(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date: " + err.Error()})
		return
	}
	endDate, err := parseDate(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date: " + err.Error()})
		return
	}

	list, err := h.sales.ListSales(sales.SaleFilters{
		BuildingID: queryUint(c, "building_id"),
		StartDate:  startDate,
		EndDate:    endDate,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ImportCSV ingests a CSV batch of historical sales. Accepts either a
// multipart "file" field or a raw CSV body.
func (h *SaleHandler) ImportCSV(c *gin.Context) {
	content, err := readCSVContent(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.sales.ImportCSV(content)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// readCSVContent extracts CSV text from a multipart upload or the request body
func readCSVContent(c *gin.Context) (string, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
