package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/roster/internal/members/storage"
)

// PutNotification upserts one inbox notification keyed by id.
func (s *Store) PutNotification(ctx context.Context, n storage.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("notification id is required")
	}
	if strings.TrimSpace(n.User) == "" {
		return fmt.Errorf("notification user is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO notifications (id, user_id, kind, payload, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   payload = excluded.payload`,
		n.ID,
		n.User,
		n.Kind,
		string(n.Payload),
		toMillisPtr(n.ReadAt),
		toMillis(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// GetNotification returns one notification by id.
func (s *Store) GetNotification(ctx context.Context, id string) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if strings.TrimSpace(id) == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, kind, payload, read_at, created_at
		 FROM notifications WHERE id = ?`,
		id,
	)
	var (
		n         storage.NotificationRecord
		payload   string
		readAt    sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&n.ID, &n.User, &n.Kind, &payload, &readAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("get notification: %w", err)
	}
	n.Payload = []byte(payload)
	n.ReadAt = fromMillisPtr(readAt)
	n.CreatedAt = fromMillis(createdAt)
	return n, nil
}

// ListNotifications returns one page of a user's notifications, newest first.
// The page token is the id of the last notification on the prior page.
func (s *Store) ListNotifications(ctx context.Context, user string, pageSize int, pageToken string) (storage.NotificationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.NotificationPage{}, err
	}
	if strings.TrimSpace(user) == "" {
		return storage.NotificationPage{}, fmt.Errorf("notification user is required")
	}
	if pageSize <= 0 {
		return storage.NotificationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	pageToken = strings.TrimSpace(pageToken)
	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, user_id, kind, payload, read_at, created_at
			 FROM notifications
			 WHERE user_id = ?
			 ORDER BY created_at DESC, id DESC
			 LIMIT ?`,
			user,
			pageSize+1,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, user_id, kind, payload, read_at, created_at
			 FROM notifications
			 WHERE user_id = ?
			   AND (created_at, id) < (SELECT created_at, id FROM notifications WHERE id = ?)
			 ORDER BY created_at DESC, id DESC
			 LIMIT ?`,
			user,
			pageToken,
			pageSize+1,
		)
	}
	if err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	page := storage.NotificationPage{
		Notifications: make([]storage.NotificationRecord, 0, pageSize),
	}
	for rows.Next() {
		var (
			n         storage.NotificationRecord
			payload   string
			readAt    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.User, &n.Kind, &payload, &readAt, &createdAt); err != nil {
			return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
		}
		n.Payload = []byte(payload)
		n.ReadAt = fromMillisPtr(readAt)
		n.CreatedAt = fromMillis(createdAt)
		page.Notifications = append(page.Notifications, n)
	}
	if err := rows.Err(); err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
	}
	if len(page.Notifications) > pageSize {
		page.NextPageToken = page.Notifications[pageSize-1].ID
		page.Notifications = page.Notifications[:pageSize]
	}
	return page, nil
}

// MarkNotificationRead stamps a notification as read. Already read
// notifications keep their original read time.
func (s *Store) MarkNotificationRead(ctx context.Context, id string, readAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("notification id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE notifications SET read_at = ?
		 WHERE id = ? AND read_at IS NULL`,
		toMillis(readAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
