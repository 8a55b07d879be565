// Package sqlstore provides a database/sql implementation of storage.Store
// for SQLite (default) and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect holds what differs between the supported databases.
type dialect struct {
	name         string
	gooseDialect string
	migrations   string
	numbered     bool // $1, $2 ... placeholders instead of ?
	snapshotTx   *sql.TxOptions
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:         DriverSQLite,
		gooseDialect: "sqlite3",
		migrations:   "migrations/sqlite",
	},
	DriverPostgres: {
		name:         DriverPostgres,
		gooseDialect: "postgres",
		migrations:   "migrations/postgres",
		numbered:     true,
		snapshotTx:   &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
	},
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements storage.Store on top of database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the database and runs migrations automatically.
//
// For SQLite, dsn is a file path; its parent directories are created and
// foreign keys, WAL and a busy timeout are enabled on every connection.
// For PostgreSQL, dsn is passed to lib/pq unchanged.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection keeps writes ordered
		// and makes ":memory:" databases usable.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(ctx, db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, dialect: d}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ?" with n entries, for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return "?" + strings.Repeat(", ?", n-1)
}

// inTx runs fn inside a transaction, rolling back on any error.
func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// bumpVersion advances the group version from expected to expected+1. It is
// the first statement of every ledger write so that the row lock (PostgreSQL)
// or write lock (SQLite) is held for the rest of the transaction.
func (s *Store) bumpVersion(ctx context.Context, tx *sql.Tx, groupID string, expected, now int64) error {
	res, err := tx.ExecContext(ctx,
		s.rebind("UPDATE groups SET version = version + 1, updated_at = ? WHERE id = ? AND version = ?"),
		now, groupID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to bump group version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to bump group version: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind("SELECT 1 FROM groups WHERE id = ?"), groupID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", storage.ErrGroupNotFound, groupID)
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}
	return fmt.Errorf("%w: group %s is no longer at version %d", storage.ErrConcurrentModification, groupID, expected)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
