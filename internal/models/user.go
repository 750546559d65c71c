package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"user_id"`
	FirstName    string    `gorm:"not null" json:"first_name"`
	LastName     string    `gorm:"not null" json:"last_name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"not null" json:"-"`             // bcrypt hash
	SessionToken *string   `gorm:"size:512;uniqueIndex" json:"-"` // nil when logged out
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the public slice of a user embedded in event and question payloads.
type UserSummary struct {
	UserID    uint   `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
