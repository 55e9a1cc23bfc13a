package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"condo-tracker/internal/tracker"
)

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracker.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tracker.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// dateLayouts accepted in request payloads
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseDate parses a date string in API-accepted layouts. An empty string
// yields nil.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid date format, expected YYYY-MM-DD")
}

// queryUint parses an optional unsigned integer query parameter
func queryUint(c *gin.Context, key string) *uint {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			u := uint(v)
			return &u
		}
	}
	return nil
}

// queryInt parses an optional integer query parameter
func queryInt(c *gin.Context, key string) *int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return &v
		}
	}
	return nil
}

// queryFloat parses an optional float query parameter
func queryFloat(c *gin.Context, key string) *float64 {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return &v
		}
	}
	return nil
}
