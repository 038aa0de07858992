// Package sqlite provides a SQLite-backed members storage implementation.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/roster/internal/members/storage"
	"github.com/louisbranch/roster/internal/members/storage/sqlite/migrations"
	sqlitemigrate "github.com/louisbranch/roster/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists members state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toMillisPtr(value *time.Time) any {
	if value == nil {
		return nil
	}
	return toMillis(*value)
}

func fromMillisPtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Open opens a SQLite members store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

var (
	_ storage.MembershipStore        = (*Store)(nil)
	_ storage.InvitationStore        = (*Store)(nil)
	_ storage.EmailInvitationStore   = (*Store)(nil)
	_ storage.JoinRequestStore       = (*Store)(nil)
	_ storage.SessionInvitationStore = (*Store)(nil)
	_ storage.EventStore             = (*Store)(nil)
	_ storage.NotificationStore      = (*Store)(nil)
)
