package model

import "time"

// RequestStatus is the lifecycle state of an assistance request.
type RequestStatus string

const (
	StatusWaiting    RequestStatus = "waiting"
	StatusInProgress RequestStatus = "in-progress"
	StatusResolved   RequestStatus = "resolved"
)

// Valid reports whether s is one of the enumerated lifecycle states.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// AssistanceRequest represents a help request submitted from a room.
// RoomName and RoomLocation are a snapshot of the room at creation time;
// they are not kept in sync with later room edits.
type AssistanceRequest struct {
	ID           int64         `gorm:"primaryKey" json:"id"`
	RoomID       int64         `gorm:"index;not null" json:"roomId"`
	RoomName     string        `gorm:"size:256;not null" json:"roomName"`
	RoomLocation string        `gorm:"size:256;not null" json:"roomLocation"`
	Status       RequestStatus `gorm:"size:32;not null;default:waiting" json:"status"`
	RequestedAt  time.Time     `gorm:"not null" json:"requestedAt"`
	RespondedAt  *time.Time    `json:"respondedAt"`
	ResolvedAt   *time.Time    `json:"resolvedAt"`
	ResolvedBy   *string       `gorm:"size:256" json:"resolvedBy"`
}
