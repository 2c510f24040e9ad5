package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenhill/schedsync/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "schedsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEntry() domain.ScheduleEntry {
	return domain.ScheduleEntry{
		OwnerID:   "owner-1",
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "10:30",
		Title:     "Algorithms",
		Room:      "B102",
		Professor: "Knuth",
	}
}

func TestSQLiteCreateAndList(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, seedEntry())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	other := seedEntry()
	other.OwnerID = "owner-2"
	_, err = s.Create(ctx, other)
	require.NoError(t, err)

	listed, err := s.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created, listed[0])

	empty, err := s.List(ctx, "owner-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteUpdatePartial(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, seedEntry())
	require.NoError(t, err)

	day := 3
	start := "14:00"
	end := "15:30"
	done := true
	require.NoError(t, s.Update(ctx, created.ID, domain.EntryMutation{
		DayOfWeek: &day, StartTime: &start, EndTime: &end, Done: &done,
	}))

	listed, err := s.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	got := listed[0]
	assert.Equal(t, 3, got.DayOfWeek)
	assert.Equal(t, "14:00", got.StartTime)
	assert.Equal(t, "15:30", got.EndTime)
	assert.True(t, got.Done)
	// Untouched fields survive the partial update.
	assert.Equal(t, "Algorithms", got.Title)
	assert.Equal(t, "B102", got.Room)
	assert.Equal(t, "Knuth", got.Professor)

	// Empty mutation is a no-op, not an error.
	require.NoError(t, s.Update(ctx, created.ID, domain.EntryMutation{}))
}

func TestSQLiteUpdateMissing(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	title := "x"
	err := s.Update(context.Background(), "nope", domain.EntryMutation{Title: &title})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteDelete(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, seedEntry())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, created.ID))

	listed, err := s.List(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.True(t, errors.Is(s.Delete(ctx, created.ID), ErrNotFound))
}

func TestSQLiteRejectsConstraintViolations(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	bad := seedEntry()
	bad.DayOfWeek = 9
	_, err := s.Create(context.Background(), bad)
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
}
