package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventboard/internal/models"
	"eventboard/internal/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type LoginInput struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

const maxTokenStoreAttempts = 3

type UserService struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

func NewUserService(db *gorm.DB, tokens *TokenIssuer) *UserService {
	return &UserService{db: db, tokens: tokens}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if isBlank(in.Email) || isBlank(in.Password) || isBlank(in.FirstName) || isBlank(in.LastName) {
		return nil, Validation("All fields (email, password, first_name, last_name) are required")
	}

	email := strings.TrimSpace(*in.Email)
	if !utils.ValidEmail(email) {
		return nil, Validation("Email must be a valid email address")
	}

	password := *in.Password
	switch n := len([]rune(password)); {
	case n < utils.MinPasswordLength:
		return nil, Validation("Password must be at least 8 characters long")
	case n > utils.MaxPasswordLength:
		return nil, Validation("Password must be no more than 30 characters long")
	}
	if !utils.ValidPassword(password) {
		return nil, Validation("Password must contain at least one number, one uppercase letter, one lowercase letter, and one special character (!@#$%^&*)")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return nil, Validation(MsgEmailTaken)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(*in.FirstName),
		LastName:  strings.TrimSpace(*in.LastName),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Validation(MsgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Login verifies credentials and returns the user with a session token set.
// A token that is still stored and valid is reused rather than rotated.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	if isBlank(in.Email) || in.Password == nil || *in.Password == "" {
		return nil, Validation("Email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(*in.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Validation(MsgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPasswordHash(*in.Password, user.Password) {
		return nil, Validation(MsgInvalidCredentials)
	}

	// A concurrent login or logout can change the stored token between the
	// read and the conditional write; re-read and try again when that happens.
	for attempt := 0; attempt < maxTokenStoreAttempts; attempt++ {
		if user.SessionToken != nil {
			if _, err := s.tokens.Verify(*user.SessionToken); err == nil {
				return &user, nil
			}
		}

		stored, err := s.storeSessionToken(ctx, &user)
		if err != nil {
			return nil, err
		}
		if stored {
			return &user, nil
		}
		var fresh models.User
		if err := s.db.WithContext(ctx).First(&fresh, user.ID).Error; err != nil {
			return nil, fmt.Errorf("reload user: %w", err)
		}
		user = fresh
	}
	return nil, fmt.Errorf("store session token for user %d: too much contention", user.ID)
}

// storeSessionToken issues a token and writes it only if the stored value is
// still the one on user. It reports false when another writer got there first.
func (s *UserService) storeSessionToken(ctx context.Context, user *models.User) (bool, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return false, err
	}

	q := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID)
	if user.SessionToken == nil {
		q = q.Where("session_token IS NULL")
	} else {
		q = q.Where("session_token = ?", *user.SessionToken)
	}
	res := q.Update("session_token", token)
	if res.Error != nil {
		return false, fmt.Errorf("store session token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	user.SessionToken = &token
	return true, nil
}

// Logout clears the caller's stored token unconditionally.
func (s *UserService) Logout(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Update("session_token", gorm.Expr("NULL")).Error
	if err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	user.SessionToken = nil
	return nil
}

// ResolveToken returns the user whose stored token equals token. The
// signature is checked first so garbage never reaches the store.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, Unauthenticated(MsgUnauthorized)
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, Unauthenticated(MsgUnauthorized)
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("id = ? AND session_token = ?", userID, token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Unauthenticated(MsgUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return &user, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
