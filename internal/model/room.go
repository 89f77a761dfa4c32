package model

// RoomStatusAvailable is the default status for a newly created room.
// Room status is free text; no transition rules are enforced.
const RoomStatusAvailable = "available"

// Room represents a bookable room in the event venue.
type Room struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:256;not null" json:"name"`
	Location string `gorm:"size:256;not null" json:"location"`
	Status   string `gorm:"size:64;not null;default:available" json:"status"`

	// Associations
	AssistanceRequests []AssistanceRequest `gorm:"foreignKey:RoomID" json:"-"`
}
