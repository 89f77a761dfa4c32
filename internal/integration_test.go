package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"assist-board-backend/config"
	"assist-board-backend/internal/api"
	appdb "assist-board-backend/internal/db"
	"assist-board-backend/internal/hub"
	"assist-board-backend/internal/model"
	"assist-board-backend/internal/store"
)

// TestAssistanceRequestLifecycle walks a request from a room touch screen
// through technician response and resolution, verifying the REST surface,
// the websocket notifications, and the activity feed at each step.
func TestAssistanceRequestLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, appdb.Migrate(testDB))

	appStore := store.NewGormStore(testDB)
	notifyHub := hub.New(appStore, nil)
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	router := api.NewRouter(appStore, notifyHub, cfg, nil)

	server := httptest.NewServer(router)
	defer server.Close()

	// A technician dashboard connects over websocket.
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	dashboard, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer dashboard.Close()
	waitForClients(t, notifyHub, 1)

	// Room admin creates a room.
	room := postJSON[model.Room](t, server.URL+"/api/rooms", map[string]any{
		"name": "Ballroom", "location": "Level 2",
	}, http.StatusCreated)
	assert.Equal(t, "available", room.Status)

	// The touch screen submits a request over REST.
	request := postJSON[model.AssistanceRequest](t, server.URL+"/api/assistance-requests", map[string]any{
		"roomId": room.ID, "roomName": "Ballroom", "roomLocation": "Level 2",
	}, http.StatusCreated)
	assert.Equal(t, model.StatusWaiting, request.Status)

	notification := readNotification(t, dashboard)
	assert.Equal(t, request.ID, notification.RequestID)
	assert.Equal(t, model.StatusWaiting, notification.Status)

	// A technician takes the request via the dashboard's websocket.
	require.NoError(t, dashboard.WriteJSON(hub.UpdateRequestStatusMessage{
		Type:      hub.TypeUpdateRequestStatus,
		RequestID: request.ID,
		Status:    model.StatusInProgress,
		UpdatedBy: "Alice",
	}))
	notification = readNotification(t, dashboard)
	assert.Equal(t, model.StatusInProgress, notification.Status)

	// And resolves it over REST.
	patchURL := fmt.Sprintf("%s/api/assistance-requests/%d", server.URL, request.ID)
	resolved := patchJSON[model.AssistanceRequest](t, patchURL, map[string]any{
		"status": "resolved", "resolvedBy": "Alice",
	}, http.StatusOK)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "Alice", *resolved.ResolvedBy)

	notification = readNotification(t, dashboard)
	assert.Equal(t, model.StatusResolved, notification.Status)

	// The activity feed shows the whole lifecycle, newest first.
	resp, err := http.Get(server.URL + "/api/activities")
	require.NoError(t, err)
	defer resp.Body.Close()
	var activities []model.Activity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&activities))
	require.Len(t, activities, 3)
	assert.Equal(t, model.ActivityResolved, activities[0].Type)
	assert.Equal(t, model.ActivityResponded, activities[1].Type)
	assert.Equal(t, model.ActivityRequested, activities[2].Type)

	// And the request now lives on the resolved side of the board.
	resp, err = http.Get(server.URL + "/api/assistance-requests/active")
	require.NoError(t, err)
	defer resp.Body.Close()
	var active []model.AssistanceRequest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&active))
	assert.Empty(t, active)
}

func waitForClients(t *testing.T, h *hub.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readNotification(t *testing.T, conn *websocket.Conn) hub.NotificationMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var notification hub.NotificationMessage
	require.NoError(t, conn.ReadJSON(&notification))
	require.Equal(t, hub.TypeNotification, notification.Type)
	return notification
}

func postJSON[T any](t *testing.T, url string, body map[string]any, wantStatus int) T {
	t.Helper()
	return sendJSON[T](t, http.MethodPost, url, body, wantStatus)
}

func patchJSON[T any](t *testing.T, url string, body map[string]any, wantStatus int) T {
	t.Helper()
	return sendJSON[T](t, http.MethodPatch, url, body, wantStatus)
}

func sendJSON[T any](t *testing.T, method, url string, body map[string]any, wantStatus int) T {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
