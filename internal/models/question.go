package models

import (
	"time"
)

type Question struct {
	ID        uint      `gorm:"primaryKey" json:"question_id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	EventID   uint      `gorm:"not null;index" json:"event_id"`
	AskedByID uint      `gorm:"column:asked_by;not null;index" json:"-"`
	AskedBy   User      `gorm:"foreignKey:AskedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"asked_by"`
	Votes     int       `gorm:"default:0;not null" json:"votes"` // always SUM(votes.vote_type)
	CreatedAt time.Time `json:"-"`
}
