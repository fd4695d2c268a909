package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed implementation of every repository the
// engine needs: question bank, users and solved sets, sessions, practice
// records and the LLM request log.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs auto-migration.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{db: db, drv: drv, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// builder returns a SQL builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// execer is satisfied by both the driver and a transaction.
type execer interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

func exec(ctx context.Context, ex execer, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func query(ctx context.Context, ex execer, q entsql.Querier) (*entsql.Rows, error) {
	stmt, args := q.Query()
	rows := &entsql.Rows{}
	if err := ex.Query(ctx, stmt, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// applyPragmas configures SQLite for a single-node server.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MOMENTUM_DB environment variable
// 2. $XDG_DATA_HOME/momentum/momentum.db
// 3. ~/.local/share/momentum/momentum.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MOMENTUM_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "momentum", "momentum.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
