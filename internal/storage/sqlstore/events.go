package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmynk/rentroll/internal/eventlog"
)

// SaveEvent persists an activity event.
func (s *Store) SaveEvent(ctx context.Context, e eventlog.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO events (id, event_type, subject, data, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		e.ID, e.Type, e.Subject, string(data), e.CreatedAt.Unix(),
	)
	if err != nil {
		return wrapWriteErr("insert event", err)
	}
	return nil
}

// ListEvents returns the newest events for subject, or for all subjects
// when subject is empty.
func (s *Store) ListEvents(ctx context.Context, subject string, limit int) ([]eventlog.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT id, event_type, subject, data, created_at FROM events"
	var args []any
	if subject != "" {
		query += " WHERE subject = ?"
		args = append(args, subject)
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []eventlog.Event
	for rows.Next() {
		var e eventlog.Event
		var data string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Type, &e.Subject, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
