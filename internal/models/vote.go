package models

import (
	"time"
)

const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is a user's single recorded vote on a question. The composite key
// allows at most one row per (question, voter).
type Vote struct {
	QuestionID uint      `gorm:"primaryKey;autoIncrement:false" json:"question_id"`
	VoterID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"voter_id"`
	VoteType   int       `gorm:"not null;default:1" json:"vote_type"` // VoteUp or VoteDown
	CreatedAt  time.Time `json:"created_at"`
}
