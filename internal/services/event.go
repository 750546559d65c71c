package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eventboard/internal/models"
	"eventboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventInput is the body of POST /events. Pointers separate "absent" from "empty".
type EventInput struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Location          *string `json:"location"`
	Start             *Number `json:"start"`
	CloseRegistration *Number `json:"close_registration"`
	MaxAttendees      *Number `json:"max_attendees"`
}

// EventPatch is the body of PATCH /event/:id. Nil fields keep their stored value.
type EventPatch EventInput

type CreatorSummary struct {
	CreatorID uint   `json:"creator_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

type EventDetail struct {
	EventID           uint                 `json:"event_id"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	DescriptionHTML   string               `json:"description_html"`
	Location          string               `json:"location"`
	Start             int64                `json:"start"`
	CloseRegistration int64                `json:"close_registration"`
	MaxAttendees      int                  `json:"max_attendees"`
	NumberAttending   int64                `json:"number_attending"`
	Creator           CreatorSummary       `json:"creator"`
	Attendees         []models.UserSummary `json:"attendees,omitempty"`
	Questions         []QuestionView       `json:"questions"`
}

type EventService struct {
	db  *gorm.DB
	pub Publisher
	now func() time.Time
}

func NewEventService(db *gorm.DB, pub Publisher) *EventService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &EventService{db: db, pub: pub, now: time.Now}
}

func (s *EventService) unixNow() int64 {
	return s.now().Unix()
}

func (s *EventService) CreateEvent(ctx context.Context, creator *models.User, in EventInput) (*models.Event, error) {
	if in.Name == nil || *in.Name == "" || in.Description == nil || *in.Description == "" ||
		in.Location == nil || *in.Location == "" || isEmptyNumber(in.Start) ||
		isEmptyNumber(in.CloseRegistration) || isEmptyNumber(in.MaxAttendees) {
		return nil, Validation("All fields (name, description, location, start, close_registration, max_attendees) are required")
	}
	if isBlank(in.Name) || isBlank(in.Description) || isBlank(in.Location) {
		return nil, Validation("Name, description, and location cannot be blank")
	}

	start, errStart := parseTimestamp(in.Start)
	closeReg, errClose := parseTimestamp(in.CloseRegistration)
	if errStart != nil || errClose != nil {
		return nil, Validation("Start and close_registration must be valid timestamps")
	}

	now := s.unixNow()
	if closeReg <= now {
		return nil, Validation("Registration close time must be in the future")
	}
	if start <= now {
		return nil, Validation("Start time must be in the future")
	}
	if closeReg >= start {
		return nil, Validation("Registration must close before the start time")
	}

	maxAttendees, err := parsePositiveInt(in.MaxAttendees)
	if err != nil {
		return nil, Validation("max_attendees must be a positive integer")
	}

	event := models.Event{
		Name:              *in.Name,
		Description:       *in.Description,
		Location:          *in.Location,
		StartDate:         start,
		CloseRegistration: closeReg,
		MaxAttendees:      maxAttendees,
		CreatorID:         creator.ID,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.pub.Publish(Activity{Type: ActivityEventCreated, EventID: event.ID, UserID: creator.ID, At: s.now()})
	return &event, nil
}

// GetEvent returns the event detail. The attendee list is only filled in for the creator.
func (s *EventService) GetEvent(ctx context.Context, id uint, viewer *models.User) (*EventDetail, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).Preload("Creator").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound(MsgEventNotFound)
		}
		return nil, fmt.Errorf("load event %d: %w", id, err)
	}

	var attendeeCount int64
	if err := s.db.WithContext(ctx).Model(&models.Attendee{}).Where("event_id = ?", id).Count(&attendeeCount).Error; err != nil {
		return nil, fmt.Errorf("count attendees: %w", err)
	}

	questions, err := loadQuestionViews(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	detail := &EventDetail{
		EventID:           event.ID,
		Name:              event.Name,
		Description:       event.Description,
		DescriptionHTML:   utils.RenderMarkdown(event.Description),
		Location:          event.Location,
		Start:             event.StartDate,
		CloseRegistration: event.CloseRegistration,
		MaxAttendees:      event.MaxAttendees,
		NumberAttending:   attendeeCount + 1,
		Creator: CreatorSummary{
			CreatorID: event.Creator.ID,
			FirstName: event.Creator.FirstName,
			LastName:  event.Creator.LastName,
			Email:     event.Creator.Email,
		},
		Questions: questions,
	}

	if viewer != nil && viewer.ID == event.CreatorID {
		attendees, err := s.attendeeList(ctx, &event)
		if err != nil {
			return nil, err
		}
		detail.Attendees = attendees
	}
	return detail, nil
}

// attendeeList returns the creator plus every stored attendee, ordered by user id.
func (s *EventService) attendeeList(ctx context.Context, event *models.Event) ([]models.UserSummary, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id = ? OR id IN (?)", event.CreatorID,
			s.db.Model(&models.Attendee{}).Select("user_id").Where("event_id = ?", event.ID)).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}

	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *EventService) RegisterAttendance(ctx context.Context, id uint, user *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Registrations for one event queue on the event row so the
		// capacity count below cannot go stale before the insert.
		var event models.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound(MsgEventNotFound)
			}
			return fmt.Errorf("load event %d: %w", id, err)
		}

		if event.IsArchived() {
			return Forbidden(MsgRegistrationClosed)
		}
		if event.CreatorID == user.ID {
			return Forbidden(MsgAlreadyRegistered)
		}

		var existing int64
		if err := tx.Model(&models.Attendee{}).Where("event_id = ? AND user_id = ?", id, user.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check attendance: %w", err)
		}
		if existing > 0 {
			return Forbidden(MsgAlreadyRegistered)
		}

		var count int64
		if err := tx.Model(&models.Attendee{}).Where("event_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}
		if count+1 >= int64(event.MaxAttendees) {
			return Forbidden(MsgEventAtCapacity)
		}

		if event.RegistrationClosedAt(s.unixNow()) {
			return Forbidden(MsgRegistrationClosed)
		}

		if err := tx.Create(&models.Attendee{EventID: id, UserID: user.ID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return Forbidden(MsgAlreadyRegistered)
			}
			return fmt.Errorf("register attendee: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.pub.Publish(Activity{Type: ActivityAttendeeRegistered, EventID: id, UserID: user.ID, At: s.now()})
	return nil
}

// ArchiveEvent sets the archived sentinel. It reports whether the event was
// already archived, in which case nothing is written.
func (s *EventService) ArchiveEvent(ctx context.Context, id uint, user *models.User) (alreadyArchived bool, err error) {
	event, err := s.loadOwnedEvent(ctx, id, user, MsgNotEventCreator)
	if err != nil {
		return false, err
	}
	if event.IsArchived() {
		return true, nil
	}

	if err := s.db.WithContext(ctx).Model(event).Update("close_registration", models.ArchivedSentinel).Error; err != nil {
		return false, fmt.Errorf("archive event %d: %w", id, err)
	}

	s.pub.Publish(Activity{Type: ActivityEventArchived, EventID: id, UserID: user.ID, At: s.now()})
	return false, nil
}

// UpdateEvent validates each provided field and writes only those columns.
// The close/start ordering is checked on the merged values.
func (s *EventService) UpdateEvent(ctx context.Context, id uint, user *models.User, patch EventPatch) (*models.Event, error) {
	event, err := s.loadOwnedEvent(ctx, id, user, MsgNotEventUpdater)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	now := s.unixNow()

	if patch.Name != nil {
		if isBlank(patch.Name) {
			return nil, Validation("Name cannot be blank")
		}
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		if isBlank(patch.Description) {
			return nil, Validation("Description cannot be blank")
		}
		updates["description"] = *patch.Description
	}
	if patch.Location != nil {
		if isBlank(patch.Location) {
			return nil, Validation("Location cannot be blank")
		}
		updates["location"] = *patch.Location
	}

	start := event.StartDate
	if patch.Start != nil {
		v, err := parseTimestamp(patch.Start)
		if err != nil {
			return nil, Validation("Start must be a valid timestamp")
		}
		if v <= now {
			return nil, Validation("Start time must be in the future")
		}
		start = v
		updates["start_date"] = v
	}

	closeReg := event.CloseRegistration
	if patch.CloseRegistration != nil {
		if event.IsArchived() {
			return nil, Forbidden(MsgRegistrationClosed)
		}
		v, err := parseTimestamp(patch.CloseRegistration)
		if err != nil {
			return nil, Validation("Close registration must be a valid timestamp")
		}
		if v <= now {
			return nil, Validation("Registration close time must be in the future")
		}
		closeReg = v
		updates["close_registration"] = v
	}

	if closeReg >= start {
		return nil, Validation("Registration must close before the start time")
	}

	if patch.MaxAttendees != nil {
		v, err := parsePositiveInt(patch.MaxAttendees)
		if err != nil {
			return nil, Validation("max_attendees must be a positive integer")
		}
		updates["max_attendees"] = v
	}

	if len(updates) == 0 {
		return event, nil
	}
	if err := s.db.WithContext(ctx).Model(event).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update event %d: %w", id, err)
	}

	s.pub.Publish(Activity{Type: ActivityEventUpdated, EventID: id, UserID: user.ID, At: s.now()})
	return event, nil
}

func (s *EventService) loadOwnedEvent(ctx context.Context, id uint, user *models.User, forbiddenMsg string) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound(MsgEventNotFound)
		}
		return nil, fmt.Errorf("load event %d: %w", id, err)
	}
	if event.CreatorID != user.ID {
		return nil, Forbidden(forbiddenMsg)
	}
	return &event, nil
}

// Number holds a numeric field as sent, whether the client used a JSON number
// or a string. Parsing happens during validation.
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	*n = Number(data)
	return nil
}

func (n Number) String() string {
	return string(n)
}

func isEmptyNumber(n *Number) bool {
	return n == nil || strings.TrimSpace(n.String()) == ""
}

func parseTimestamp(n *Number) (int64, error) {
	if isEmptyNumber(n) {
		return 0, errors.New("missing timestamp")
	}
	return strconv.ParseInt(strings.TrimSpace(n.String()), 10, 64)
}

func parsePositiveInt(n *Number) (int, error) {
	if isEmptyNumber(n) {
		return 0, errors.New("missing number")
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.String()))
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, fmt.Errorf("%d is not positive", v)
	}
	return v, nil
}
