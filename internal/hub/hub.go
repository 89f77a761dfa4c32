package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"assist-board-backend/internal/model"
	"assist-board-backend/internal/store"
)

// defaultWriteTimeout bounds each broadcast write. A client that stops
// reading (sleeping touch screen, dead NAT path) keeps an open transport
// that never fails a write on its own; the deadline turns the stalled write
// into an error so the connection is evicted like any other failed write.
const defaultWriteTimeout = 10 * time.Second

// Dispatcher enqueues a push notification job for a newly created request.
// Satisfied by push.WorkerPool; nil disables paging.
type Dispatcher interface {
	Dispatch(requestID int64)
}

// Hub tracks all open websocket connections and fans every lifecycle event
// out to them. Connections carry no identity: a client that reconnects is a
// new connection, and anything broadcast while it was away is gone. Clients
// reconcile through the REST surface.
type Hub struct {
	store    store.Store
	pager    Dispatcher
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[uuid.UUID]*websocket.Conn

	writeTimeout time.Duration
}

// New creates a hub backed by the given store. pager may be nil.
func New(s store.Store, pager Dispatcher) *Hub {
	return &Hub{
		store:    s,
		pager:    pager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Touch screens and dashboards connect from arbitrary venue
			// hosts; the channel carries no authentication.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns:        make(map[uuid.UUID]*websocket.Conn),
		writeTimeout: defaultWriteTimeout,
	}
}

// Handle upgrades the request and serves the connection until it closes.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	id := uuid.New()
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	log.Printf("websocket client %s connected", id)

	defer func() {
		h.remove(id)
		log.Printf("websocket client %s disconnected", id)
	}()

	ctx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleMessage(ctx, data)
	}
}

// ClientCount reports the number of currently open connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.conns[id]; ok {
		conn.Close()
		delete(h.conns, id)
	}
}

// handleMessage dispatches one inbound message. Malformed or unknown
// messages are logged and dropped; the connection stays open and no error is
// echoed back to the sender.
func (h *Hub) handleMessage(ctx context.Context, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("dropping malformed websocket message: %v", err)
		return
	}

	switch env.Type {
	case TypeRequestAssistance:
		h.handleRequestAssistance(ctx, data)
	case TypeUpdateRequestStatus:
		h.handleUpdateRequestStatus(ctx, data)
	default:
		log.Printf("dropping websocket message with unknown type %q", env.Type)
	}
}

func (h *Hub) handleRequestAssistance(ctx context.Context, data []byte) {
	var msg RequestAssistanceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("dropping malformed requestAssistance message: %v", err)
		return
	}
	if msg.RoomID == 0 || msg.RoomName == "" {
		log.Printf("dropping requestAssistance message with missing room fields")
		return
	}

	request, err := h.store.CreateAssistanceRequest(ctx, store.CreateAssistanceRequestInput{
		RoomID:       msg.RoomID,
		RoomName:     msg.RoomName,
		RoomLocation: msg.RoomLocation,
	})
	if err != nil {
		log.Printf("failed to create assistance request from websocket: %v", err)
		return
	}

	h.NotifyCreated(request)
}

func (h *Hub) handleUpdateRequestStatus(ctx context.Context, data []byte) {
	var msg UpdateRequestStatusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("dropping malformed updateRequestStatus message: %v", err)
		return
	}

	request, err := h.store.UpdateAssistanceRequestStatus(ctx, msg.RequestID, msg.Status, msg.UpdatedBy)
	if err != nil {
		// Unknown ids are a silent no-op toward the sender; only the absence
		// of a follow-up notification signals the rejection.
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidStatus) {
			log.Printf("dropping updateRequestStatus for request %d: %v", msg.RequestID, err)
		} else {
			log.Printf("failed to update assistance request %d from websocket: %v", msg.RequestID, err)
		}
		return
	}

	h.NotifyUpdated(request)
}

// NotifyCreated broadcasts a newly created request to all clients and pages
// subscribed technicians.
func (h *Hub) NotifyCreated(request *model.AssistanceRequest) {
	h.Broadcast(notificationFor(request))
	if h.pager != nil {
		h.pager.Dispatch(request.ID)
	}
}

// NotifyUpdated broadcasts a request's new state after a status transition.
func (h *Hub) NotifyUpdated(request *model.AssistanceRequest) {
	h.Broadcast(notificationFor(request))
}

// Broadcast sends one identical copy of the message to every open
// connection. Connections whose write fails are closed and removed lazily;
// there is no queuing, retry, or per-client filtering.
func (h *Hub) Broadcast(msg NotificationMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal notification: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("removing websocket client %s after failed write: %v", id, err)
			conn.Close()
			delete(h.conns, id)
		}
	}
}
