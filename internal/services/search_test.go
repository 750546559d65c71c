package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventNames(results []SearchResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	return names
}

func TestParseSearchParams(t *testing.T) {
	p, err := ParseSearchParams("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, SearchParams{Limit: 20}, p)

	p, err = ParseSearchParams("go", StatusOpen, "5", "10")
	require.NoError(t, err)
	assert.Equal(t, SearchParams{Query: "go", Status: StatusOpen, Limit: 5, Offset: 10}, p)

	tests := []struct {
		status, limit, offset, msg string
	}{
		{"", "0", "", "Limit must be between 1 and 100"},
		{"", "101", "", "Limit must be between 1 and 100"},
		{"", "ten", "", "Limit must be between 1 and 100"},
		{"", "", "-1", "Offset must be non-negative"},
		{"", "", "x", "Offset must be non-negative"},
		{"CLOSED", "", "", "Status must be one of: MY_EVENTS, ATTENDING, OPEN, ARCHIVE"},
	}
	for _, tt := range tests {
		_, err := ParseSearchParams("", tt.status, tt.limit, tt.offset)
		requireKind(t, err, KindValidation, tt.msg)
	}
}

func TestSearchStatusFilters(t *testing.T) {
	conn := newTestDB(t)
	svc := newEventService(conn)
	ctx := context.Background()
	now := fixedNow.Unix()

	creator := createUser(t, conn, "creator@example.com")
	viewer := createUser(t, conn, "viewer@example.com")

	open := createEvent(t, conn, creator, "Open", now+3000, now+100, 10)
	createEvent(t, conn, creator, "Archived", now+1000, -1, 10)
	createEvent(t, conn, creator, "Lapsed", now+2000, now-100, 10)
	mine := createEvent(t, conn, viewer, "Mine", now+4000, now+200, 10)
	register(t, conn, open, viewer)

	all, err := svc.Search(ctx, SearchParams{Limit: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Archived", "Lapsed", "Open", "Mine"}, eventNames(all))

	openOnly, err := svc.Search(ctx, SearchParams{Status: StatusOpen, Limit: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Open", "Mine"}, eventNames(openOnly))

	archived, err := svc.Search(ctx, SearchParams{Status: StatusArchive, Limit: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Archived", "Lapsed"}, eventNames(archived))

	myEvents, err := svc.Search(ctx, SearchParams{Status: StatusMyEvents, Limit: 20}, viewer)
	require.NoError(t, err)
	require.Len(t, myEvents, 1)
	assert.Equal(t, mine.ID, myEvents[0].EventID)

	attending, err := svc.Search(ctx, SearchParams{Status: StatusAttending, Limit: 20}, viewer)
	require.NoError(t, err)
	require.Len(t, attending, 1)
	assert.Equal(t, open.ID, attending[0].EventID)
	assert.True(t, attending[0].IsAttending)
	assert.EqualValues(t, 1, attending[0].AttendeeCount)
	assert.Equal(t, creator.ID, attending[0].Creator.CreatorID)

	_, err = svc.Search(ctx, SearchParams{Status: StatusAttending, Limit: 20}, nil)
	requireKind(t, err, KindUnauthenticated, "Authentication required for MY_EVENTS and ATTENDING status")
}

func TestSearchTextAndPaging(t *testing.T) {
	conn := newTestDB(t)
	svc := newEventService(conn)
	ctx := context.Background()
	now := fixedNow.Unix()

	creator := createUser(t, conn, "creator@example.com")
	createEvent(t, conn, creator, "Golang Night", now+1000, now+500, 10)
	createEvent(t, conn, creator, "Rust Evening", now+2000, now+500, 10)
	createEvent(t, conn, creator, "100% Go", now+3000, now+500, 10)

	byName, err := svc.Search(ctx, SearchParams{Query: "GOLANG", Limit: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Golang Night"}, eventNames(byName))

	byDescription, err := svc.Search(ctx, SearchParams{Query: "evening desc", Limit: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust Evening"}, eventNames(byDescription))

	literalPercent, err := svc.Search(ctx, SearchParams{Query: "0%", Limit: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Go"}, eventNames(literalPercent))

	page, err := svc.Search(ctx, SearchParams{Limit: 1, Offset: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust Evening"}, eventNames(page))

	none, err := svc.Search(ctx, SearchParams{Query: "cobol", Limit: 20}, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}
