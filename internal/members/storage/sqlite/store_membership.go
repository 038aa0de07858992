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

const membershipColumns = "id, user_id, list_type, list_id, role, time_at, created_at, updated_at"

func scanMembership(scan func(dest ...any) error) (domain.Membership, error) {
	var (
		m         domain.Membership
		timeAt    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&m.ID,
		&m.User,
		&m.ListType,
		&m.List,
		&m.Role,
		&timeAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Membership{}, err
	}
	m.Time = fromMillisPtr(timeAt)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return m, nil
}

// PutMembership upserts one membership record keyed by its composite id.
func (s *Store) PutMembership(ctx context.Context, m domain.Membership) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("membership id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO memberships (id, user_id, list_type, list_id, role, time_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   role = excluded.role,
		   time_at = excluded.time_at,
		   updated_at = excluded.updated_at`,
		m.ID,
		m.User,
		m.ListType,
		m.List,
		m.Role,
		toMillisPtr(m.Time),
		toMillis(m.CreatedAt),
		toMillis(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put membership: %w", err)
	}
	return nil
}

// GetMembership returns one membership by composite id.
func (s *Store) GetMembership(ctx context.Context, id string) (domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return domain.Membership{}, err
	}
	if err := s.ready(); err != nil {
		return domain.Membership{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Membership{}, fmt.Errorf("membership id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE id = ?`,
		id,
	)
	m, err := scanMembership(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Membership{}, storage.ErrNotFound
		}
		return domain.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// DeleteMembership removes one membership by composite id.
func (s *Store) DeleteMembership(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("membership id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM memberships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func membershipWhere(filter storage.MembershipFilter) (string, []any) {
	var (
		clauses []string
		params  []any
	)
	if filter.User != "" {
		clauses = append(clauses, "user_id = ?")
		params = append(params, filter.User)
	}
	if filter.ListType != "" {
		clauses = append(clauses, "list_type = ?")
		params = append(params, filter.ListType)
	}
	if filter.List != "" {
		clauses = append(clauses, "list_id = ?")
		params = append(params, filter.List)
	}
	if filter.Role != "" {
		clauses = append(clauses, "role = ?")
		params = append(params, filter.Role)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), params
}

// ListMemberships returns one page of memberships matching the filter.
func (s *Store) ListMemberships(ctx context.Context, filter storage.MembershipFilter, pageSize int, pageToken string) (storage.MembershipPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.MembershipPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.MembershipPage{}, err
	}
	if pageSize <= 0 {
		return storage.MembershipPage{}, fmt.Errorf("page size must be greater than zero")
	}

	where, params := membershipWhere(filter)
	pageToken = strings.TrimSpace(pageToken)
	if pageToken != "" {
		if where == "" {
			where = " WHERE id > ?"
		} else {
			where += " AND id > ?"
		}
		params = append(params, pageToken)
	}
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+membershipColumns+` FROM memberships`+where+` ORDER BY id ASC LIMIT ?`,
		params...,
	)
	if err != nil {
		return storage.MembershipPage{}, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	page := storage.MembershipPage{
		Memberships: make([]domain.Membership, 0, pageSize),
	}
	for rows.Next() {
		m, err := scanMembership(rows.Scan)
		if err != nil {
			return storage.MembershipPage{}, fmt.Errorf("list memberships: %w", err)
		}
		page.Memberships = append(page.Memberships, m)
	}
	if err := rows.Err(); err != nil {
		return storage.MembershipPage{}, fmt.Errorf("list memberships: %w", err)
	}
	if len(page.Memberships) > pageSize {
		page.NextPageToken = page.Memberships[pageSize-1].ID
		page.Memberships = page.Memberships[:pageSize]
	}
	return page, nil
}

// DeleteListMemberships removes every membership on a list and returns the
// removed records.
func (s *Store) DeleteListMemberships(ctx context.Context, listType, list string) ([]domain.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(listType) == "" {
		return nil, fmt.Errorf("list type is required")
	}
	if strings.TrimSpace(list) == "" {
		return nil, fmt.Errorf("list id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE list_type = ? AND list_id = ?
		 ORDER BY id ASC`,
		listType,
		list,
	)
	if err != nil {
		return nil, fmt.Errorf("delete list memberships: %w", err)
	}
	defer rows.Close()

	var removed []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("delete list memberships: %w", err)
		}
		removed = append(removed, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete list memberships: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM memberships WHERE list_type = ? AND list_id = ?`,
		listType,
		list,
	); err != nil {
		return nil, fmt.Errorf("delete list memberships: %w", err)
	}
	return removed, nil
}

// UpdateListMembershipTimes sets the time field on every membership of a list.
func (s *Store) UpdateListMembershipTimes(ctx context.Context, listType, list string, t *time.Time, updatedAt time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(listType) == "" {
		return 0, fmt.Errorf("list type is required")
	}
	if strings.TrimSpace(list) == "" {
		return 0, fmt.Errorf("list id is required")
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE memberships SET time_at = ?, updated_at = ?
		 WHERE list_type = ? AND list_id = ?`,
		toMillisPtr(t),
		toMillis(updatedAt),
		listType,
		list,
	)
	if err != nil {
		return 0, fmt.Errorf("update list membership times: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update list membership times: %w", err)
	}
	return int(changed), nil
}
