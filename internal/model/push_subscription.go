package model

import "time"

// PushSubscription holds a technician browser's web push subscription.
// Every subscription receives a push for every new assistance request;
// there is no per-room filtering.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
