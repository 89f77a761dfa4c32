package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"assist-board-backend/internal/hub"
	"assist-board-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	hub     *hub.Hub
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, h *hub.Hub, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		hub:     h,
		webpush: webpushOptions,
	}
}
