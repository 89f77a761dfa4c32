package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetActivities handles GET /api/activities, returning the latest 50
// activity rows, most recent first.
func (h *Handler) GetActivities(c *gin.Context) {
	activities, err := h.store.GetActivities(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch activities"})
		return
	}
	c.JSON(http.StatusOK, activities)
}
