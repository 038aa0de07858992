package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/storage"
)

// AddSessionInvitations merges pending invitations into a session's set.
// The composite primary key covers the full invitation value, so repeats of
// the same redemption are absorbed by INSERT OR IGNORE.
func (s *Store) AddSessionInvitations(ctx context.Context, session string, invs []domain.PendingInvitation, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(session) == "" {
		return fmt.Errorf("session id is required")
	}
	if len(invs) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add session invitations: %w", err)
	}
	for _, inv := range invs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO session_invitations (session_id, from_user, list_type, list_id, role, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			session,
			inv.From,
			inv.ListType,
			inv.List,
			inv.Role,
			toMillis(now),
			toMillis(now),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("add session invitations: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add session invitations: %w", err)
	}
	return nil
}

// GetSessionInvitations retrieves the pending invitation set for a session.
func (s *Store) GetSessionInvitations(ctx context.Context, session string) (domain.SessionInvitations, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionInvitations{}, err
	}
	if err := s.ready(); err != nil {
		return domain.SessionInvitations{}, err
	}
	if strings.TrimSpace(session) == "" {
		return domain.SessionInvitations{}, fmt.Errorf("session id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT from_user, list_type, list_id, role, created_at, updated_at
		 FROM session_invitations
		 WHERE session_id = ?
		 ORDER BY created_at ASC, list_type ASC, list_id ASC`,
		session,
	)
	if err != nil {
		return domain.SessionInvitations{}, fmt.Errorf("get session invitations: %w", err)
	}
	defer rows.Close()

	record := domain.SessionInvitations{Session: session}
	for rows.Next() {
		var (
			inv       domain.PendingInvitation
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(
			&inv.From,
			&inv.ListType,
			&inv.List,
			&inv.Role,
			&createdAt,
			&updatedAt,
		); err != nil {
			return domain.SessionInvitations{}, fmt.Errorf("get session invitations: %w", err)
		}
		if record.CreatedAt.IsZero() || fromMillis(createdAt).Before(record.CreatedAt) {
			record.CreatedAt = fromMillis(createdAt)
		}
		if fromMillis(updatedAt).After(record.UpdatedAt) {
			record.UpdatedAt = fromMillis(updatedAt)
		}
		record.Invitations = append(record.Invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return domain.SessionInvitations{}, fmt.Errorf("get session invitations: %w", err)
	}
	if len(record.Invitations) == 0 {
		return domain.SessionInvitations{}, storage.ErrNotFound
	}
	return record, nil
}

// RemoveSessionInvitation removes one pending invitation by value.
func (s *Store) RemoveSessionInvitation(ctx context.Context, session string, inv domain.PendingInvitation, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(session) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM session_invitations
		 WHERE session_id = ? AND from_user = ? AND list_type = ? AND list_id = ? AND role = ?`,
		session,
		inv.From,
		inv.ListType,
		inv.List,
		inv.Role,
	)
	if err != nil {
		return fmt.Errorf("remove session invitation: %w", err)
	}
	return nil
}

// DeleteSessionInvitations removes a session's entire pending set.
func (s *Store) DeleteSessionInvitations(ctx context.Context, session string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(session) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM session_invitations WHERE session_id = ?`,
		session,
	)
	if err != nil {
		return fmt.Errorf("delete session invitations: %w", err)
	}
	return nil
}
