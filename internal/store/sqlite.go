package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sevenhill/schedsync/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps schedule entries in a local SQLite database. SQLite
// allows a single writer, so the pool is capped at one connection.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Safe to call repeatedly.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &StoreError{Op: "open", Err: fmt.Errorf("%s: %w", pragma, err)}
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("apply schema: %w", err)}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context, ownerID string) ([]domain.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, day_of_week, start_time, end_time, title, room, professor, done
		FROM schedule_entries
		WHERE owner_id = ?
		ORDER BY day_of_week ASC, start_time ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []domain.ScheduleEntry
	for rows.Next() {
		var e domain.ScheduleEntry
		var done int
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.DayOfWeek, &e.StartTime, &e.EndTime, &e.Title, &e.Room, &e.Professor, &done); err != nil {
			return nil, &StoreError{Op: "list", Err: err}
		}
		e.Done = done != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) Create(ctx context.Context, entry domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	entry.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_entries
		(id, owner_id, day_of_week, start_time, end_time, title, room, professor, done)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OwnerID, entry.DayOfWeek, entry.StartTime, entry.EndTime, entry.Title, entry.Room, entry.Professor, boolToInt(entry.Done))
	if err != nil {
		return domain.ScheduleEntry{}, &StoreError{Op: "create", Err: err}
	}
	return entry, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, mutation domain.EntryMutation) error {
	if mutation.Empty() {
		return nil
	}
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)
	if mutation.DayOfWeek != nil {
		sets = append(sets, "day_of_week = ?")
		args = append(args, *mutation.DayOfWeek)
	}
	if mutation.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, *mutation.StartTime)
	}
	if mutation.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, *mutation.EndTime)
	}
	if mutation.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *mutation.Title)
	}
	if mutation.Room != nil {
		sets = append(sets, "room = ?")
		args = append(args, *mutation.Room)
	}
	if mutation.Professor != nil {
		sets = append(sets, "professor = ?")
		args = append(args, *mutation.Professor)
	}
	if mutation.Done != nil {
		sets = append(sets, "done = ?")
		args = append(args, boolToInt(*mutation.Done))
	}
	sets = append(sets, "updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')")
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE schedule_entries SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	if affected == 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM schedule_entries WHERE id = ?", id)
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
