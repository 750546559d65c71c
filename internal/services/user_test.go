package services

import (
	"context"
	"testing"

	"eventboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func validRegistration(email string) RegisterInput {
	return RegisterInput{
		Email:     strPtr(email),
		Password:  strPtr("Secr3t!pass"),
		FirstName: strPtr("Ada"),
		LastName:  strPtr("Lovelace"),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn, NewTokenIssuer("test-secret", 0))
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration("ada@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "Secr3t!pass", user.Password)

	first, err := svc.Login(ctx, LoginInput{Email: strPtr("ada@example.com"), Password: strPtr("Secr3t!pass")})
	require.NoError(t, err)
	require.NotNil(t, first.SessionToken)

	second, err := svc.Login(ctx, LoginInput{Email: strPtr("ada@example.com"), Password: strPtr("Secr3t!pass")})
	require.NoError(t, err)
	assert.Equal(t, *first.SessionToken, *second.SessionToken, "repeat login reuses the stored token")

	resolved, err := svc.ResolveToken(ctx, *first.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestRegisterValidation(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn, NewTokenIssuer("test-secret", 0))
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration("taken@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		msg    string
	}{
		{"missing field", func(in *RegisterInput) { in.LastName = nil }, "All fields (email, password, first_name, last_name) are required"},
		{"bad email", func(in *RegisterInput) { in.Email = strPtr("not-an-email") }, "Email must be a valid email address"},
		{"short password", func(in *RegisterInput) { in.Password = strPtr("Ab1!") }, "Password must be at least 8 characters long"},
		{"weak password", func(in *RegisterInput) { in.Password = strPtr("alllowercase1!") }, ""},
		{"duplicate email", func(in *RegisterInput) { in.Email = strPtr("taken@example.com") }, MsgEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration("new@example.com")
			tt.mutate(&in)
			_, err := svc.Register(ctx, in)
			requireKind(t, err, KindValidation, tt.msg)
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn, NewTokenIssuer("test-secret", 0))
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: strPtr("ada@example.com"), Password: strPtr("Wrong!pass1")})
	requireKind(t, err, KindValidation, MsgInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: strPtr("nobody@example.com"), Password: strPtr("Secr3t!pass")})
	requireKind(t, err, KindValidation, MsgInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: strPtr("ada@example.com")})
	requireKind(t, err, KindValidation, "Email and password are required")
}

func TestLogoutRevokesToken(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn, NewTokenIssuer("test-secret", 0))
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration("ada@example.com"))
	require.NoError(t, err)
	user, err := svc.Login(ctx, LoginInput{Email: strPtr("ada@example.com"), Password: strPtr("Secr3t!pass")})
	require.NoError(t, err)
	token := *user.SessionToken

	require.NoError(t, svc.Logout(ctx, user))

	_, err = svc.ResolveToken(ctx, token)
	requireKind(t, err, KindUnauthenticated, MsgUnauthorized)

	var stored models.User
	require.NoError(t, conn.First(&stored, user.ID).Error)
	assert.Nil(t, stored.SessionToken)

	again, err := svc.Login(ctx, LoginInput{Email: strPtr("ada@example.com"), Password: strPtr("Secr3t!pass")})
	require.NoError(t, err)
	assert.NotEqual(t, token, *again.SessionToken)
}

func TestResolveTokenRejectsForeignSignature(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn, NewTokenIssuer("test-secret", 0))
	ctx := context.Background()

	user := createUser(t, conn, "ada@example.com")
	forged, err := NewTokenIssuer("other-secret", 0).Issue(user.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Model(user).Update("session_token", forged).Error)

	_, err = svc.ResolveToken(ctx, forged)
	requireKind(t, err, KindUnauthenticated, MsgUnauthorized)

	_, err = svc.ResolveToken(ctx, "")
	requireKind(t, err, KindUnauthenticated, MsgUnauthorized)
}

func TestLoginRetriesWhenTokenClearedConcurrently(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn, NewTokenIssuer("test-secret", 0))
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration("ada@example.com"))
	require.NoError(t, err)
	stale, err := NewTokenIssuer("old-secret", 0).Issue(user.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Model(user).Update("session_token", stale).Error)

	// Clear the token just before the first conditional write, as a logout would.
	cleared := false
	err = conn.Callback().Update().Before("gorm:update").After("gorm:begin_transaction").Register("test:logout_race", func(tx *gorm.DB) {
		if cleared || tx.Statement.Table != "users" {
			return
		}
		cleared = true
		tx.AddError(tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE users SET session_token = NULL WHERE id = ?", user.ID).Error)
	})
	require.NoError(t, err)

	loggedIn, err := svc.Login(ctx, LoginInput{Email: strPtr("ada@example.com"), Password: strPtr("Secr3t!pass")})
	require.NoError(t, err)
	require.True(t, cleared)
	require.NotNil(t, loggedIn.SessionToken)
	assert.NotEqual(t, stale, *loggedIn.SessionToken)

	resolved, err := svc.ResolveToken(ctx, *loggedIn.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}
