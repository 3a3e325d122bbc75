package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mikaelhatanpaa/eventline/internal/model"
)

var (
	ErrDuplicate = errors.New("duplicate")
	ErrNotFound  = errors.New("not found")
)

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("chmod db path: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) InsertEvent(ctx context.Context, ev model.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.UpdatedAt.IsZero() {
		ev.UpdatedAt = ev.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO events(event_id, title, description, location, organizer, date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, ev.EventID, ev.Title, ev.Description, ev.Location, ev.Organizer, ts(ev.Date), ts(ev.CreatedAt), ts(ev.UpdatedAt))
	if err != nil {
		if isUniqueErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, ev model.Event) error {
	if ev.UpdatedAt.IsZero() {
		ev.UpdatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE events SET title = ?, description = ?, location = ?, organizer = ?, date = ?, updated_at = ?
WHERE event_id = ?
`, ev.Title, ev.Description, ev.Location, ev.Organizer, ts(ev.Date), ts(ev.UpdatedAt), ev.EventID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT event_id, title, description, location, organizer, date, created_at, updated_at
FROM events WHERE event_id = ?
`, eventID)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListEventsPage returns one page of the catalog in (date, event_id) order so
// page contents stay stable across requests.
func (s *Store) ListEventsPage(ctx context.Context, limit, offset int) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, title, description, location, organizer, date, created_at, updated_at
FROM events ORDER BY date ASC, event_id ASC LIMIT ? OFFSET ?
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events page: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	events := make([]model.Event, 0, limit)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (s *Store) InsertRegistration(ctx context.Context, reg model.Registration) error {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO registrations(registration_id, event_id, attendee_name, attendee_email, created_at)
VALUES (?, ?, ?, ?, ?)
`, reg.RegistrationID, reg.EventID, reg.AttendeeName, reg.AttendeeEmail, ts(reg.CreatedAt))
	if err != nil {
		if isUniqueErr(err) {
			return ErrDuplicate
		}
		if isForeignKeyErr(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *Store) ListRegistrationsForEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT registration_id, event_id, attendee_name, attendee_email, created_at
FROM registrations WHERE event_id = ? ORDER BY created_at ASC, registration_id ASC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	regs := make([]model.Registration, 0)
	for rows.Next() {
		var reg model.Registration
		var createdAt string
		if err := rows.Scan(&reg.RegistrationID, &reg.EventID, &reg.AttendeeName, &reg.AttendeeEmail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan registration row: %w", err)
		}
		created, err := parseTS(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse registration created_at: %w", err)
		}
		reg.CreatedAt = created
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration rows: %w", err)
	}
	return regs, nil
}

func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	switch table {
	case "events", "registrations":
	default:
		return 0, fmt.Errorf("unknown table: %s", table)
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return count, nil
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (model.Event, error) {
	var ev model.Event
	var date, createdAt, updatedAt string
	if err := scanner.Scan(&ev.EventID, &ev.Title, &ev.Description, &ev.Location, &ev.Organizer, &date, &createdAt, &updatedAt); err != nil {
		return model.Event{}, err
	}
	parsedDate, err := parseTS(date)
	if err != nil {
		return model.Event{}, fmt.Errorf("parse event date: %w", err)
	}
	created, err := parseTS(createdAt)
	if err != nil {
		return model.Event{}, fmt.Errorf("parse event created_at: %w", err)
	}
	updated, err := parseTS(updatedAt)
	if err != nil {
		return model.Event{}, fmt.Errorf("parse event updated_at: %w", err)
	}
	ev.Date = parsedDate
	ev.CreatedAt = created
	ev.UpdatedAt = updated
	return ev, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return containsAny(msg,
		"UNIQUE constraint failed",
		"constraint failed: UNIQUE",
	)
}

func isForeignKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return containsAny(msg,
		"FOREIGN KEY constraint failed",
		"constraint failed: FOREIGN KEY",
	)
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}
