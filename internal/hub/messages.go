package hub

import (
	"time"

	"assist-board-backend/internal/model"
)

// Message type discriminators carried in every websocket envelope.
const (
	TypeRequestAssistance   = "requestAssistance"
	TypeUpdateRequestStatus = "updateRequestStatus"
	TypeNotification        = "notification"
)

// envelope is the minimal decode used to pick a message handler.
type envelope struct {
	Type string `json:"type"`
}

// RequestAssistanceMessage is sent by a room touch screen to open a request.
type RequestAssistanceMessage struct {
	Type         string `json:"type"`
	RoomID       int64  `json:"roomId"`
	RoomName     string `json:"roomName"`
	RoomLocation string `json:"roomLocation"`
}

// UpdateRequestStatusMessage is sent by the technician dashboard to move a
// request through its lifecycle.
type UpdateRequestStatusMessage struct {
	Type      string              `json:"type"`
	RequestID int64               `json:"requestId"`
	Status    model.RequestStatus `json:"status"`
	UpdatedBy string              `json:"updatedBy,omitempty"`
}

// NotificationMessage is fanned out to every connected client after a
// lifecycle change. Timestamp is the send time in Unix milliseconds.
type NotificationMessage struct {
	Type         string              `json:"type"`
	RequestID    int64               `json:"requestId"`
	RoomName     string              `json:"roomName"`
	RoomLocation string              `json:"roomLocation"`
	Status       model.RequestStatus `json:"status"`
	Timestamp    int64               `json:"timestamp"`
}

// notificationFor summarizes a request's current state for broadcast.
func notificationFor(request *model.AssistanceRequest) NotificationMessage {
	return NotificationMessage{
		Type:         TypeNotification,
		RequestID:    request.ID,
		RoomName:     request.RoomName,
		RoomLocation: request.RoomLocation,
		Status:       request.Status,
		Timestamp:    time.Now().UnixMilli(),
	}
}
