package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"eventboard/internal/db"
	"eventboard/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Unix(1_700_000_000, 0)

// newTestDB returns a migrated in-memory database private to the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return conn
}

func createUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{FirstName: "Test", LastName: "User", Email: email, Password: "not-a-hash"}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func newEventService(conn *gorm.DB) *EventService {
	s := NewEventService(conn, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func createEvent(t *testing.T, conn *gorm.DB, creator *models.User, name string, start, closeReg int64, maxAttendees int) *models.Event {
	t.Helper()
	event := &models.Event{
		Name:              name,
		Description:       name + " description",
		Location:          "Wellington",
		StartDate:         start,
		CloseRegistration: closeReg,
		MaxAttendees:      maxAttendees,
		CreatorID:         creator.ID,
	}
	require.NoError(t, conn.Omit("Creator").Create(event).Error)
	return event
}

func register(t *testing.T, conn *gorm.DB, event *models.Event, user *models.User) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Attendee{EventID: event.ID, UserID: user.ID}).Error)
}

// insertBeforeCreate runs stmt inside the caller's transaction the first time
// a row is created in table, simulating a concurrent writer that slipped in
// after the service's own existence check.
func insertBeforeCreate(t *testing.T, conn *gorm.DB, table, stmt string, args ...interface{}) *bool {
	t.Helper()
	fired := new(bool)
	err := conn.Callback().Create().Before("gorm:create").After("gorm:begin_transaction").Register("test:insert_"+table, func(tx *gorm.DB) {
		if *fired || tx.Statement.Table != table {
			return
		}
		*fired = true
		tx.AddError(tx.Session(&gorm.Session{NewDB: true}).Exec(stmt, args...).Error)
	})
	require.NoError(t, err)
	return fired
}

func strPtr(s string) *string { return &s }

func requireKind(t *testing.T, err error, kind ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok, "expected *Error, got %v", err)
	require.Equal(t, kind, e.Kind)
	if msg != "" {
		require.Equal(t, msg, e.Message)
	}
}

type recordingPublisher struct {
	activities []Activity
}

func (p *recordingPublisher) Publish(a Activity) {
	p.activities = append(p.activities, a)
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.activities))
	for _, a := range p.activities {
		out = append(out, a.Type)
	}
	return out
}
