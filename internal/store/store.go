package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
	"github.com/raulk/clock"

	"github.com/roach88/nexus/internal/queryir"
	"github.com/roach88/nexus/internal/querysql"
)

// Store is the system of record for farm telemetry.
// It owns one SQLite database file.
type Store struct {
	db       *sql.DB
	clock    clock.Clock
	logger   *slog.Logger
	compiler *querysql.SQLCompiler
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for server-generated timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger for reconciliation decisions and failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates or opens a SQLite database at the given path and brings its
// schema up to date.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//   - Immediate transactions, so writers take the lock up front
//
// This function is idempotent - safe to call on every start.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		clock:    clock.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		compiler: querysql.NewSQLCompiler(),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s.db = db
	return s, nil
}

// dsn builds the go-sqlite3 connection string. Pragmas are carried in the
// DSN so they apply to every connection the pool opens.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// withTx runs fn in one transaction. The transaction commits when fn
// returns nil and rolls back on every other path, including panics.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageError("commit", err)
	}
	return nil
}

// exec compiles and runs a write statement, returning rows affected.
func (s *Store) exec(ctx context.Context, tx *sql.Tx, stmt queryir.Statement) (int64, error) {
	query, args, err := s.compiler.CompileStatement(stmt)
	if err != nil {
		return 0, storageError("compile", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storageError("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError("rows affected", err)
	}
	return n, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
