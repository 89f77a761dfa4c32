package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"assist-board-backend/internal/model"
	"assist-board-backend/internal/store"
)

// ListAssistanceRequests handles GET /api/assistance-requests with an
// optional exact-match status query parameter.
func (h *Handler) ListAssistanceRequests(c *gin.Context) {
	requests, err := h.store.GetAssistanceRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch requests"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

// ListActiveAssistanceRequests handles GET /api/assistance-requests/active.
func (h *Handler) ListActiveAssistanceRequests(c *gin.Context) {
	requests, err := h.store.GetActiveAssistanceRequests(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch active requests"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

// ListResolvedAssistanceRequests handles GET /api/assistance-requests/resolved.
func (h *Handler) ListResolvedAssistanceRequests(c *gin.Context) {
	requests, err := h.store.GetResolvedAssistanceRequests(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch resolved requests"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

// GetAssistanceRequest handles GET /api/assistance-requests/:id.
func (h *Handler) GetAssistanceRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request id"})
		return
	}

	request, err := h.store.GetAssistanceRequest(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Request not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch request"})
		return
	}
	c.JSON(http.StatusOK, request)
}

type createAssistanceRequest struct {
	RoomID       int64  `json:"roomId"`
	RoomName     string `json:"roomName"`
	RoomLocation string `json:"roomLocation"`
	Status       string `json:"status"`
}

// CreateAssistanceRequest handles POST /api/assistance-requests. The request
// is always created in the waiting state; a caller-supplied status outside
// the enum is a schema violation.
func (h *Handler) CreateAssistanceRequest(c *gin.Context) {
	var req createAssistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}
	if req.RoomID == 0 || req.RoomName == "" || req.RoomLocation == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}
	if req.Status != "" && !model.RequestStatus(req.Status).Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request data"})
		return
	}

	request, err := h.store.CreateAssistanceRequest(c.Request.Context(), store.CreateAssistanceRequestInput{
		RoomID:       req.RoomID,
		RoomName:     req.RoomName,
		RoomLocation: req.RoomLocation,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create request"})
		return
	}

	h.hub.NotifyCreated(request)
	c.JSON(http.StatusCreated, request)
}

type updateAssistanceRequest struct {
	Status     string `json:"status"`
	ResolvedBy string `json:"resolvedBy"`
}

// UpdateAssistanceRequestStatus handles PATCH /api/assistance-requests/:id.
func (h *Handler) UpdateAssistanceRequestStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request id"})
		return
	}

	var req updateAssistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid status value"})
		return
	}

	request, err := h.store.UpdateAssistanceRequestStatus(c.Request.Context(), id, model.RequestStatus(req.Status), req.ResolvedBy)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidStatus):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid status value"})
		case errors.Is(err, store.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Request not found"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update request"})
		}
		return
	}

	h.hub.NotifyUpdated(request)
	c.JSON(http.StatusOK, request)
}
