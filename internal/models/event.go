package models

import (
	"time"
)

// ArchivedSentinel in CloseRegistration marks an event as archived.
const ArchivedSentinel int64 = -1

type Event struct {
	ID                uint      `gorm:"primaryKey" json:"event_id"`
	Name              string    `gorm:"not null" json:"name"`
	Description       string    `gorm:"type:text;not null" json:"description"`
	Location          string    `gorm:"not null" json:"location"`
	StartDate         int64     `gorm:"not null;index" json:"start"`              // unix seconds
	CloseRegistration int64     `gorm:"not null;index" json:"close_registration"` // unix seconds or ArchivedSentinel
	MaxAttendees      int       `gorm:"not null" json:"max_attendees"`
	CreatorID         uint      `gorm:"not null;index" json:"creator_id"`
	Creator           User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}

func (e *Event) IsArchived() bool {
	return e.CloseRegistration == ArchivedSentinel
}

// RegistrationClosedAt reports whether registration has closed by time at now (unix seconds).
// A close time equal to now counts as closed. Archived events are handled separately by IsArchived.
func (e *Event) RegistrationClosedAt(now int64) bool {
	return !e.IsArchived() && e.CloseRegistration <= now
}
