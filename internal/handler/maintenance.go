package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentscout/internal/model"
	"rentscout/internal/service"
)

// MaintenanceHandler handles operational HTTP requests
type MaintenanceHandler struct {
	searchService *service.SearchService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(searchService *service.SearchService) *MaintenanceHandler {
	return &MaintenanceHandler{
		searchService: searchService,
	}
}

// RefreshAreaContext handles POST /api/v1/area-context/refresh
func (h *MaintenanceHandler) RefreshAreaContext(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	report, err := h.searchService.RefreshAreaContext(c.Request.Context(), req.ForceAll)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
