package models

import (
	"time"
)

// Attendee is one explicit registration. The event creator is never stored here.
type Attendee struct {
	EventID   uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
