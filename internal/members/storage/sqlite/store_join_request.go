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

const joinRequestColumns = "id, from_user, to_user, list_type, list_id, role, state, created_at, updated_at"

func scanJoinRequest(scan func(dest ...any) error) (domain.JoinRequest, error) {
	var (
		req       domain.JoinRequest
		state     string
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&req.ID,
		&req.From,
		&req.To,
		&req.ListType,
		&req.List,
		&req.Role,
		&state,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.JoinRequest{}, err
	}
	req.State = domain.InvitationState(state)
	req.CreatedAt = fromMillis(createdAt)
	req.UpdatedAt = fromMillis(updatedAt)
	return req, nil
}

// PutJoinRequest upserts one join request keyed by its composite id.
func (s *Store) PutJoinRequest(ctx context.Context, req domain.JoinRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("join request id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO join_requests (id, from_user, to_user, list_type, list_id, role, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   role = excluded.role,
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		req.ID,
		req.From,
		req.To,
		req.ListType,
		req.List,
		req.Role,
		string(req.State),
		toMillis(req.CreatedAt),
		toMillis(req.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put join request: %w", err)
	}
	return nil
}

// GetJoinRequest returns one join request by composite id.
func (s *Store) GetJoinRequest(ctx context.Context, id string) (domain.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.JoinRequest{}, err
	}
	if err := s.ready(); err != nil {
		return domain.JoinRequest{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.JoinRequest{}, fmt.Errorf("join request id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+joinRequestColumns+` FROM join_requests WHERE id = ?`,
		id,
	)
	req, err := scanJoinRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JoinRequest{}, storage.ErrNotFound
		}
		return domain.JoinRequest{}, fmt.Errorf("get join request: %w", err)
	}
	return req, nil
}

// DeleteJoinRequest removes one join request by composite id.
func (s *Store) DeleteJoinRequest(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("join request id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM join_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete join request: %w", err)
	}
	return nil
}

// ListJoinRequests returns one page of join requests matching the filter.
func (s *Store) ListJoinRequests(ctx context.Context, filter storage.JoinRequestFilter, pageSize int, pageToken string) (storage.JoinRequestPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.JoinRequestPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.JoinRequestPage{}, err
	}
	if pageSize <= 0 {
		return storage.JoinRequestPage{}, fmt.Errorf("page size must be greater than zero")
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
		`SELECT `+joinRequestColumns+` FROM join_requests`+where+` ORDER BY id ASC LIMIT ?`,
		params...,
	)
	if err != nil {
		return storage.JoinRequestPage{}, fmt.Errorf("list join requests: %w", err)
	}
	defer rows.Close()

	page := storage.JoinRequestPage{
		Requests: make([]domain.JoinRequest, 0, pageSize),
	}
	for rows.Next() {
		req, err := scanJoinRequest(rows.Scan)
		if err != nil {
			return storage.JoinRequestPage{}, fmt.Errorf("list join requests: %w", err)
		}
		page.Requests = append(page.Requests, req)
	}
	if err := rows.Err(); err != nil {
		return storage.JoinRequestPage{}, fmt.Errorf("list join requests: %w", err)
	}
	if len(page.Requests) > pageSize {
		page.NextPageToken = page.Requests[pageSize-1].ID
		page.Requests = page.Requests[:pageSize]
	}
	return page, nil
}

// UpdateJoinRequestState transitions one join request and returns the stored
// record. The update only fires from the "new" state so terminal states stay
// terminal.
func (s *Store) UpdateJoinRequestState(ctx context.Context, id string, state domain.InvitationState, updatedAt time.Time) (domain.JoinRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.JoinRequest{}, err
	}
	if err := s.ready(); err != nil {
		return domain.JoinRequest{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.JoinRequest{}, fmt.Errorf("join request id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE join_requests SET state = ?, updated_at = ?
		 WHERE id = ? AND state = ?`,
		string(state),
		toMillis(updatedAt),
		id,
		string(domain.StateNew),
	)
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("update join request state: %w", err)
	}
	return s.GetJoinRequest(ctx, id)
}
