// Package store implements the structured analytics store: a single products
// table queried with generated SQL and rendered as pipe-delimited text.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sweetpotato0/ragalytics/pkg/logging"
)

// Executor is the capability consumed by the analytics pipeline. Execute runs
// a query and returns a tabular text representation (header row plus value
// rows, pipe-delimited), or a descriptive error for malformed SQL.
type Executor interface {
	Execute(ctx context.Context, query string) (string, error)
}

// SQLStore implements Executor over database/sql. The driver is chosen by the
// caller; sqlite3 is the default wiring, postgres works unchanged.
type SQLStore struct {
	db     *sql.DB
	logger interface {
		Debug(msg string, args ...any)
	}
}

var _ Executor = (*SQLStore)(nil)

// New wraps an opened database handle.
func New(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logging.WithComponent("store"),
	}
}

// Open opens a database by driver name and DSN and verifies connectivity.
func Open(driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return New(db), nil
}

// Ping verifies the connection; used by health checks.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for schema management.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Execute runs the query and renders the result set as pipe-delimited text.
// The first line is the header row; NULLs render as empty fields. Errors come
// back verbatim from the driver so callers can inspect their message.
func (s *SQLStore) Execute(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query cannot be empty")
	}
	s.logger.Debug("executing query", "query", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("read result columns: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(columns, "|"))

	values := make([]sql.NullString, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return "", fmt.Errorf("scan result row: %w", err)
		}
		fields := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				fields[i] = v.String
			}
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(fields, "|"))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return sb.String(), nil
}
