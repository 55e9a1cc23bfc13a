package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"condo-tracker/internal/buildings"
)

// BuildingHandler handles building and neighborhood requests
type BuildingHandler struct {
	resolver *buildings.Resolver
}

// NewBuildingHandler creates a new building handler
func NewBuildingHandler(resolver *buildings.Resolver) *BuildingHandler {
	return &BuildingHandler{resolver: resolver}
}

// ListBuildings returns all buildings with listing counts
func (h *BuildingHandler) ListBuildings(c *gin.Context) {
	summaries, err := h.resolver.ListBuildings()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"buildings": summaries,
		"count":     len(summaries),
	})
}

// GetBuilding returns a single building with its counts
func (h *BuildingHandler) GetBuilding(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid building id"})
		return
	}

	summary, err := h.resolver.GetBuilding(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetBuildingStats returns sale price statistics for a building
func (h *BuildingHandler) GetBuildingStats(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid building id"})
		return
	}

	stats, err := h.resolver.GetBuildingStats(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListNeighborhoods returns all neighborhoods
func (h *BuildingHandler) ListNeighborhoods(c *gin.Context) {
	neighborhoods, err := h.resolver.ListNeighborhoods()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"neighborhoods": neighborhoods,
		"count":         len(neighborhoods),
	})
}
