package services

import (
	"context"
	"errors"
	"fmt"

	"eventboard/internal/models"

	"gorm.io/gorm"
)

type QuestionInput struct {
	Question *string `json:"question"`
}

type QuestionView struct {
	QuestionID uint               `json:"question_id"`
	Question   string             `json:"question"`
	AskedBy    models.UserSummary `json:"asked_by"`
	Votes      int                `json:"votes"`
	EventID    uint               `json:"event_id"`
}

type QuestionList struct {
	Questions []QuestionView `json:"questions"`
	Total     int            `json:"total"`
}

type QuestionService struct {
	db  *gorm.DB
	pub Publisher
}

func NewQuestionService(db *gorm.DB, pub Publisher) *QuestionService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &QuestionService{db: db, pub: pub}
}

func (s *QuestionService) AskQuestion(ctx context.Context, eventID uint, user *models.User, in QuestionInput) (*models.Question, error) {
	if isBlank(in.Question) {
		return nil, Validation(MsgQuestionRequired)
	}

	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound(MsgEventNotFound)
		}
		return nil, fmt.Errorf("load event %d: %w", eventID, err)
	}
	if event.CreatorID == user.ID {
		return nil, Forbidden(MsgOwnEventQuestion)
	}

	var registered int64
	err := s.db.WithContext(ctx).Model(&models.Attendee{}).
		Where("event_id = ? AND user_id = ?", eventID, user.ID).
		Count(&registered).Error
	if err != nil {
		return nil, fmt.Errorf("check attendance: %w", err)
	}
	if registered == 0 {
		return nil, Forbidden(MsgNotRegistered)
	}

	question := models.Question{
		Question:  *in.Question,
		EventID:   eventID,
		AskedByID: user.ID,
	}
	if err := s.db.WithContext(ctx).Omit("AskedBy").Create(&question).Error; err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.pub.Publish(Activity{Type: ActivityQuestionAsked, EventID: eventID, QuestionID: question.ID, UserID: user.ID})
	return &question, nil
}

// DeleteQuestion removes a question and its votes. Allowed for the author and
// for the creator of the question's event.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id uint, user *models.User) error {
	var question models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound(MsgQuestionNotFound)
			}
			return fmt.Errorf("load question %d: %w", id, err)
		}

		if question.AskedByID != user.ID {
			var event models.Event
			if err := tx.Select("id", "creator_id").First(&event, question.EventID).Error; err != nil {
				return fmt.Errorf("load event %d: %w", question.EventID, err)
			}
			if event.CreatorID != user.ID {
				return Forbidden(MsgCannotDelete)
			}
		}

		if err := tx.Where("question_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("delete votes: %w", err)
		}
		if err := tx.Delete(&models.Question{}, id).Error; err != nil {
			return fmt.Errorf("delete question %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.pub.Publish(Activity{Type: ActivityQuestionDeleted, EventID: question.EventID, QuestionID: id, UserID: user.ID})
	return nil
}

// Vote records the user's single vote on a question and recomputes the tally
// in the same transaction. direction is models.VoteUp or models.VoteDown.
func (s *QuestionService) Vote(ctx context.Context, questionID uint, user *models.User, direction int) error {
	if direction != models.VoteUp && direction != models.VoteDown {
		return fmt.Errorf("invalid vote direction %d", direction)
	}

	var question models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound(MsgQuestionNotFound)
			}
			return fmt.Errorf("load question %d: %w", questionID, err)
		}

		var existing int64
		if err := tx.Model(&models.Vote{}).Where("question_id = ? AND voter_id = ?", questionID, user.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check vote: %w", err)
		}
		if existing > 0 {
			return Forbidden(MsgAlreadyVoted)
		}

		vote := models.Vote{QuestionID: questionID, VoterID: user.ID, VoteType: direction}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return Forbidden(MsgAlreadyVoted)
			}
			return fmt.Errorf("record vote: %w", err)
		}

		return recountVotes(tx, questionID)
	})
	if err != nil {
		return err
	}

	s.pub.Publish(Activity{Type: ActivityQuestionVoted, EventID: question.EventID, QuestionID: questionID, UserID: user.ID, Value: direction})
	return nil
}

// recountVotes writes SUM(vote_type) back to questions.votes.
func recountVotes(tx *gorm.DB, questionID uint) error {
	var total int
	err := tx.Model(&models.Vote{}).
		Select("COALESCE(SUM(vote_type), 0)").
		Where("question_id = ?", questionID).
		Scan(&total).Error
	if err != nil {
		return fmt.Errorf("sum votes: %w", err)
	}

	err = tx.Model(&models.Question{}).Where("id = ?", questionID).UpdateColumn("votes", total).Error
	if err != nil {
		return fmt.Errorf("update tally: %w", err)
	}
	return nil
}

func (s *QuestionService) ListQuestions(ctx context.Context, eventID uint) (*QuestionList, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check event: %w", err)
	}
	if count == 0 {
		return nil, NotFound(MsgEventNotFound)
	}

	views, err := loadQuestionViews(s.db.WithContext(ctx), eventID)
	if err != nil {
		return nil, err
	}
	return &QuestionList{Questions: views, Total: len(views)}, nil
}

// loadQuestionViews returns an event's questions, highest tally first.
func loadQuestionViews(db *gorm.DB, eventID uint) ([]QuestionView, error) {
	var questions []models.Question
	err := db.Preload("AskedBy").
		Where("event_id = ?", eventID).
		Order("votes DESC").Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	views := make([]QuestionView, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		views = append(views, QuestionView{
			QuestionID: q.ID,
			Question:   q.Question,
			AskedBy:    q.AskedBy.Summary(),
			Votes:      q.Votes,
			EventID:    q.EventID,
		})
	}
	return views, nil
}
