package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/roster/internal/members/domain"
	"github.com/louisbranch/roster/internal/members/storage"
)

const emailInvitationColumns = "code, from_user, email, list_type, list_id, role, created_at, updated_at"

func scanEmailInvitation(scan func(dest ...any) error) (domain.EmailInvitation, error) {
	var (
		inv       domain.EmailInvitation
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&inv.Code,
		&inv.From,
		&inv.Email,
		&inv.ListType,
		&inv.List,
		&inv.Role,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.EmailInvitation{}, err
	}
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return inv, nil
}

// PutEmailInvitation upserts one email invitation keyed by its code.
func (s *Store) PutEmailInvitation(ctx context.Context, inv domain.EmailInvitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(inv.Code) == "" {
		return fmt.Errorf("email invitation code is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO email_invitations (code, from_user, email, list_type, list_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
		   role = excluded.role,
		   updated_at = excluded.updated_at`,
		inv.Code,
		inv.From,
		inv.Email,
		inv.ListType,
		inv.List,
		inv.Role,
		toMillis(inv.CreatedAt),
		toMillis(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put email invitation: %w", err)
	}
	return nil
}

// GetEmailInvitation returns one email invitation by code.
func (s *Store) GetEmailInvitation(ctx context.Context, code string) (domain.EmailInvitation, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmailInvitation{}, err
	}
	if err := s.ready(); err != nil {
		return domain.EmailInvitation{}, err
	}
	if strings.TrimSpace(code) == "" {
		return domain.EmailInvitation{}, fmt.Errorf("email invitation code is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+emailInvitationColumns+` FROM email_invitations WHERE code = ?`,
		code,
	)
	inv, err := scanEmailInvitation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EmailInvitation{}, storage.ErrNotFound
		}
		return domain.EmailInvitation{}, fmt.Errorf("get email invitation: %w", err)
	}
	return inv, nil
}

// DeleteEmailInvitation removes one email invitation by code.
func (s *Store) DeleteEmailInvitation(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("email invitation code is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM email_invitations WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete email invitation: %w", err)
	}
	return nil
}

// ListEmailInvitations returns one page of email invitations matching the filter.
func (s *Store) ListEmailInvitations(ctx context.Context, filter storage.EmailInvitationFilter, pageSize int, pageToken string) (storage.EmailInvitationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.EmailInvitationPage{}, err
	}
	if err := s.ready(); err != nil {
		return storage.EmailInvitationPage{}, err
	}
	if pageSize <= 0 {
		return storage.EmailInvitationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		clauses []string
		params  []any
	)
	if filter.From != "" {
		clauses = append(clauses, "from_user = ?")
		params = append(params, filter.From)
	}
	if filter.Email != "" {
		clauses = append(clauses, "email = ?")
		params = append(params, filter.Email)
	}
	if filter.ListType != "" {
		clauses = append(clauses, "list_type = ?")
		params = append(params, filter.ListType)
	}
	if filter.List != "" {
		clauses = append(clauses, "list_id = ?")
		params = append(params, filter.List)
	}
	pageToken = strings.TrimSpace(pageToken)
	if pageToken != "" {
		clauses = append(clauses, "code > ?")
		params = append(params, pageToken)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+emailInvitationColumns+` FROM email_invitations`+where+` ORDER BY code ASC LIMIT ?`,
		params...,
	)
	if err != nil {
		return storage.EmailInvitationPage{}, fmt.Errorf("list email invitations: %w", err)
	}
	defer rows.Close()

	page := storage.EmailInvitationPage{
		Invitations: make([]domain.EmailInvitation, 0, pageSize),
	}
	for rows.Next() {
		inv, err := scanEmailInvitation(rows.Scan)
		if err != nil {
			return storage.EmailInvitationPage{}, fmt.Errorf("list email invitations: %w", err)
		}
		page.Invitations = append(page.Invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return storage.EmailInvitationPage{}, fmt.Errorf("list email invitations: %w", err)
	}
	if len(page.Invitations) > pageSize {
		page.NextPageToken = page.Invitations[pageSize-1].Code
		page.Invitations = page.Invitations[:pageSize]
	}
	return page, nil
}
