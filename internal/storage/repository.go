package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"budgetbuddy/internal/ports"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db   dbtx
	conn *sql.DB
	tx   bool
}

// dbtx is what both *sql.DB and *sql.Tx offer the queries.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dsn adds the pragmas every connection needs. Transactions begin
// IMMEDIATE so that they take the write lock up front and queue on
// busy_timeout instead of failing when two of them upgrade at once.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	status, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite database ready", "path", dbPath, "schema_version", status.Version, "migrated", status.Changed)

	return &SQLiteRepository{db: db, conn: db}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.conn.PingContext(ctx)
}

// Close closes the database. It is a no-op on the view handed to InTx.
func (r *SQLiteRepository) Close() error {
	if r.conn != nil && !r.tx {
		return r.conn.Close()
	}
	return nil
}

// InTx runs fn inside a database transaction, committing when fn returns
// nil and rolling back otherwise. Inside fn, InTx joins the open transaction.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if r.tx {
		return fn(ctx, r)
	}
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, &SQLiteRepository{db: tx, conn: r.conn, tx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// execAffectingOne runs a statement that must touch exactly one row owned by
// the caller; zero affected rows means not found.
func (r *SQLiteRepository) execAffectingOne(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
