package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"assist-board-backend/config"
	"assist-board-backend/internal/hub"
	"assist-board-backend/internal/mw"
	"assist-board-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. The websocket hub is
// mounted at /ws; everything else lives under the rate-limited /api group.
func NewRouter(s store.Store, h *hub.Hub, cfg *config.ServerConfig, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, h, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Only the room roster is cached; the activity feed and request lists
	// are polled for freshness.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/ws", h.Handle)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/rooms", caching, handler.GetRooms)
		api.GET("/rooms/:id", handler.GetRoom)
		api.POST("/rooms", handler.CreateRoom)

		api.GET("/assistance-requests", handler.ListAssistanceRequests)
		api.GET("/assistance-requests/active", handler.ListActiveAssistanceRequests)
		api.GET("/assistance-requests/resolved", handler.ListResolvedAssistanceRequests)
		api.GET("/assistance-requests/:id", handler.GetAssistanceRequest)
		api.POST("/assistance-requests", handler.CreateAssistanceRequest)
		api.PATCH("/assistance-requests/:id", handler.UpdateAssistanceRequestStatus)

		api.GET("/activities", handler.GetActivities)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
