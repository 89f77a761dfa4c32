package model

import "time"

// Activity types, one per lifecycle event.
const (
	ActivityRequested = "requested"
	ActivityResponded = "responded"
	ActivityResolved  = "resolved"
)

// Activity is one row of the append-only lifecycle log shown to technicians.
type Activity struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"size:32;not null" json:"type"`
	RoomName   string    `gorm:"size:256;not null" json:"roomName"`
	Message    string    `gorm:"size:512;not null" json:"message"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
	Technician *string   `gorm:"size:256" json:"technician"`
	RoomID     *int64    `json:"roomId"`
}
