package model

// User is defined in the schema for future authentication.
// No lifecycle logic touches it yet.
type User struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;size:128;not null" json:"username"`
	Password string `gorm:"size:256;not null" json:"-"`
}
