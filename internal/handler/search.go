package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentscout/internal/model"
	"rentscout/internal/service"
)

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if req.UserLocation != nil {
		if req.UserLocation.Latitude < -90 || req.UserLocation.Latitude > 90 ||
			req.UserLocation.Longitude < -180 || req.UserLocation.Longitude > 180 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user location"})
			return
		}
	}

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetListing handles GET /api/v1/listings/:id
func (h *SearchHandler) GetListing(c *gin.Context) {
	listingIDStr := c.Param("id")
	listingID, err := strconv.ParseInt(listingIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	listing, err := h.searchService.GetListing(c.Request.Context(), listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing: " + err.Error()})
		return
	}

	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, listing)
}
