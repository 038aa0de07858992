package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/storage"
)

const invitationColumns = "id, from_user, to_user, list_type, list_id, role, state, created_at, updated_at"

func scanInvitation(scan func(dest ...any) error) (domain.Invitation, error) {
	var (
		inv       domain.Invitation
		state     string
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&inv.ID,
		&inv.From,
		&inv.To,
		&inv.ListType,
		&inv.List,
		&inv.Role,
		&state,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Invitation{}, err
	}
	inv.State = domain.InvitationState(state)
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return inv, nil
}

// PutInvitation upserts one direct invitation keyed by its composite id.
// Re-sending an invitation replaces the stored row, resetting a terminal
// state back to the incoming one.
func (s *Store) PutInvitation(ctx context.Context, inv domain.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(inv.ID) == "" {
		return fmt.Errorf("invitation id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO invitations (id, from_user, to_user, list_type, list_id, role, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   role = excluded.role,
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		inv.ID,
		inv.From,
		inv.To,
		inv.ListType,
		inv.List,
		inv.Role,
		string(inv.State),
		toMillis(inv.CreatedAt),
		toMillis(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put invitation: %w", err)
	}
	return nil
}

// GetInvitation returns one invitation by composite id.
func (s *Store) GetInvitation(ctx context.Context, id string) (domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Invitation{}, err
	}
	if err := s.ready(); err != nil {
		return domain.Invitation{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Invitation{}, fmt.Errorf("invitation id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`,
		id,
	)
	inv, err := scanInvitation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invitation{}, storage.ErrNotFound
		}
		return domain.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// DeleteInvitation removes one invitation by composite id.
func (s *Store) DeleteInvitation(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invitation id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// ListInvitations returns one page of invitations matching the filter.
func (s *Store) ListInvitations(ctx context.Context, filter storage.InvitationFilter, pageSize int, pageToken string) (storage.InvitationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.InvitationPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.InvitationPage{}, err
	}
	if pageSize <= 0 {
		return storage.InvitationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		clauses []string
		params  []any
	)
	if filter.From != "" {
		clauses = append(clauses, "from_user = ?")
		params = append(params, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "to_user = ?")
		params = append(params, filter.To)
	}
	if filter.ListType != "" {
		clauses = append(clauses, "list_type = ?")
		params = append(params, filter.ListType)
	}
	if filter.List != "" {
		clauses = append(clauses, "list_id = ?")
		params = append(params, filter.List)
	}
	if filter.State != "" {
		clauses = append(clauses, "state = ?")
		params = append(params, string(filter.State))
	}
	pageToken = strings.TrimSpace(pageToken)
	if pageToken != "" {
		clauses = append(clauses, "id > ?")
		params = append(params, pageToken)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+invitationColumns+` FROM invitations`+where+` ORDER BY id ASC LIMIT ?`,
		params...,
	)
	if err != nil {
		return storage.InvitationPage{}, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	page := storage.InvitationPage{
		Invitations: make([]domain.Invitation, 0, pageSize),
	}
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return storage.InvitationPage{}, fmt.Errorf("list invitations: %w", err)
		}
		page.Invitations = append(page.Invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return storage.InvitationPage{}, fmt.Errorf("list invitations: %w", err)
	}
	if len(page.Invitations) > pageSize {
		page.NextPageToken = page.Invitations[pageSize-1].ID
		page.Invitations = page.Invitations[:pageSize]
	}
	return page, nil
}

// UpdateInvitationState transitions one invitation and returns the stored
// record. The update only fires from the "new" state so terminal states stay
// terminal even under concurrent accept/decline races.
func (s *Store) UpdateInvitationState(ctx context.Context, id string, state domain.InvitationState, updatedAt time.Time) (domain.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Invitation{}, err
	}
	if err := s.ready(); err != nil {
		return domain.Invitation{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Invitation{}, fmt.Errorf("invitation id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE invitations SET state = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		string(state),
		toMillis(updatedAt),
		id,
		string(domain.StateNew),
	)
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("update invitation state: %w", err)
	}
	return s.GetInvitation(ctx, id)
}
