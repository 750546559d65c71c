package services

import (
	"context"
	"fmt"
	"strings"

	"eventboard/internal/models"
	"eventboard/internal/utils"
)

const (
	StatusMyEvents  = "MY_EVENTS"
	StatusAttending = "ATTENDING"
	StatusOpen      = "OPEN"
	StatusArchive   = "ARCHIVE"

	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type SearchParams struct {
	Query  string
	Status string
	Limit  int
	Offset int
}

type SearchResult struct {
	EventID           uint           `json:"event_id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Location          string         `json:"location"`
	Start             int64          `json:"start"`
	CloseRegistration int64          `json:"close_registration"`
	MaxAttendees      int            `json:"max_attendees"`
	Creator           CreatorSummary `json:"creator"`
	AttendeeCount     int64          `json:"attendee_count"`
	IsAttending       bool           `json:"is_attending"`
}

// ParseSearchParams validates raw query-string values.
func ParseSearchParams(q, status, limit, offset string) (SearchParams, error) {
	l, ok := utils.ParseIntDefault(limit, defaultSearchLimit)
	if !ok || l < 1 || l > maxSearchLimit {
		return SearchParams{}, Validation("Limit must be between 1 and 100")
	}
	o, ok := utils.ParseIntDefault(offset, 0)
	if !ok || o < 0 {
		return SearchParams{}, Validation("Offset must be non-negative")
	}

	switch status {
	case "", StatusMyEvents, StatusAttending, StatusOpen, StatusArchive:
	default:
		return SearchParams{}, Validation("Status must be one of: MY_EVENTS, ATTENDING, OPEN, ARCHIVE")
	}

	return SearchParams{Query: q, Status: status, Limit: l, Offset: o}, nil
}

// Search lists events matching p, ordered by start time. viewer may be nil.
func (s *EventService) Search(ctx context.Context, p SearchParams, viewer *models.User) ([]SearchResult, error) {
	if (p.Status == StatusMyEvents || p.Status == StatusAttending) && viewer == nil {
		return nil, Unauthenticated("Authentication required for MY_EVENTS and ATTENDING status")
	}
	if p.Limit == 0 {
		p.Limit = defaultSearchLimit
	}

	query := s.db.WithContext(ctx).Model(&models.Event{}).Preload("Creator")

	now := s.unixNow()
	switch p.Status {
	case StatusMyEvents:
		query = query.Where("creator_id = ?", viewer.ID)
	case StatusAttending:
		query = query.Where("id IN (?)",
			s.db.Model(&models.Attendee{}).Select("event_id").Where("user_id = ?", viewer.ID))
	case StatusOpen:
		query = query.Where("close_registration <> ? AND close_registration > ?", models.ArchivedSentinel, now)
	case StatusArchive:
		query = query.Where("(close_registration = ? OR close_registration <= ?)", models.ArchivedSentinel, now)
	}

	if q := strings.TrimSpace(p.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where(
			`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}

	var events []models.Event
	err := query.Order("start_date ASC").Order("id ASC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	if len(events) == 0 {
		return []SearchResult{}, nil
	}

	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}

	counts, err := s.attendeeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	attending := map[uint]bool{}
	if viewer != nil {
		var mine []uint
		err := s.db.WithContext(ctx).Model(&models.Attendee{}).
			Where("user_id = ? AND event_id IN ?", viewer.ID, ids).
			Pluck("event_id", &mine).Error
		if err != nil {
			return nil, fmt.Errorf("load attendance: %w", err)
		}
		for _, id := range mine {
			attending[id] = true
		}
	}

	results := make([]SearchResult, 0, len(events))
	for i := range events {
		e := &events[i]
		results = append(results, SearchResult{
			EventID:           e.ID,
			Name:              e.Name,
			Description:       e.Description,
			Location:          e.Location,
			Start:             e.StartDate,
			CloseRegistration: e.CloseRegistration,
			MaxAttendees:      e.MaxAttendees,
			Creator: CreatorSummary{
				CreatorID: e.Creator.ID,
				FirstName: e.Creator.FirstName,
				LastName:  e.Creator.LastName,
			},
			AttendeeCount: counts[e.ID],
			IsAttending:   attending[e.ID],
		})
	}
	return results, nil
}

func (s *EventService) attendeeCounts(ctx context.Context, eventIDs []uint) (map[uint]int64, error) {
	var rows []struct {
		EventID uint
		Total   int64
	}
	err := s.db.WithContext(ctx).Model(&models.Attendee{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count attendees: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.EventID] = r.Total
	}
	return counts, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
