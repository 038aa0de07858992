package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/roster/internal/members/event"
)

// AppendEvent appends one event to the journal and returns it with its
// sequence number set.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if err := s.ready(); err != nil {
		return event.Event{}, err
	}
	if !evt.Type.IsValid() {
		return event.Event{}, fmt.Errorf("event type is required")
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO events (event_type, occurred_at, actor_type, actor_id, session_id, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(evt.Type),
		toMillis(evt.Timestamp),
		string(evt.ActorType),
		evt.ActorID,
		evt.SessionID,
		string(evt.PayloadJSON),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	evt.Seq = uint64(seq)
	return evt, nil
}

// ListEvents returns events ordered by sequence ascending, after afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT seq, event_type, occurred_at, actor_type, actor_id, session_id, payload
		 FROM events
		 WHERE seq > ?
		 ORDER BY seq ASC
		 LIMIT ?`,
		afterSeq,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt        event.Event
			eventType  string
			occurredAt int64
			actorType  string
			payload    string
		)
		if err := rows.Scan(
			&evt.Seq,
			&eventType,
			&occurredAt,
			&actorType,
			&evt.ActorID,
			&evt.SessionID,
			&payload,
		); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		evt.Type = event.Type(eventType)
		evt.Timestamp = fromMillis(occurredAt)
		evt.ActorType = event.ActorType(actorType)
		evt.PayloadJSON = []byte(payload)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetLatestEventSeq returns the latest journal sequence number, or 0 when
// the journal is empty.
func (s *Store) GetLatestEventSeq(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`)
	var seq sql.NullInt64
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get latest event seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}
