// Package datatier routes persistent reads and writes across storage
// endpoints.
// This file implements the SQL-backed endpoint for PostgreSQL, MySQL, and
// SQLite.
package datatier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// Dialect selects the SQL flavor an endpoint speaks. The differences are
// confined to placeholder style and upsert syntax; everything else is the
// same three statements.
type Dialect string

const (
	// DialectPostgres targets PostgreSQL (github.com/lib/pq).
	DialectPostgres Dialect = "postgres"
	// DialectMySQL targets MySQL (github.com/go-sql-driver/mysql).
	DialectMySQL Dialect = "mysql"
	// DialectSQLite targets SQLite (github.com/mattn/go-sqlite3).
	DialectSQLite Dialect = "sqlite"
)

// identifierPattern is the shape a table name must have before it is
// interpolated into statement text. Placeholders cannot carry identifiers,
// so the name is validated instead.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLEndpoint is an Endpoint backed by a relational database. One endpoint
// maps to one table of (data_key, data_value) rows; replicas and shards are
// separate databases or separate tables, each with its own endpoint.
// Thread-safe: *sql.DB pools connections internally.
type SQLEndpoint struct {
	id        string
	db        *sql.DB
	table     string
	createSQL string
	upsertSQL string
	selectSQL string
	deleteSQL string
}

// NewSQLEndpoint creates an endpoint over db speaking dialect, storing rows
// in table. The table name must be a plain identifier; anything else fails
// construction.
//
// Example:
//
//	db, err := sql.Open("postgres", dsn)
//	if err != nil {
//	    log.Fatalf("Failed to open database: %v", err)
//	}
//	ep, err := datatier.NewSQLEndpoint("primary", db, datatier.DialectPostgres, "ballast_data")
func NewSQLEndpoint(id string, db *sql.DB, dialect Dialect, table string) (*SQLEndpoint, error) {
	if id == "" {
		return nil, errors.New("endpoint ID is required")
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	e := &SQLEndpoint{id: id, db: db, table: table}
	switch dialect {
	case DialectPostgres:
		e.createSQL = fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (data_key TEXT PRIMARY KEY, data_value BYTEA NOT NULL)`, table)
		e.upsertSQL = fmt.Sprintf(
			`INSERT INTO %s (data_key, data_value) VALUES ($1, $2)
			 ON CONFLICT (data_key) DO UPDATE SET data_value = EXCLUDED.data_value`, table)
		e.selectSQL = fmt.Sprintf(`SELECT data_value FROM %s WHERE data_key = $1`, table)
		e.deleteSQL = fmt.Sprintf(`DELETE FROM %s WHERE data_key = $1`, table)
	case DialectMySQL:
		e.createSQL = fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (data_key VARCHAR(255) PRIMARY KEY, data_value BLOB NOT NULL)`, table)
		e.upsertSQL = fmt.Sprintf(
			`INSERT INTO %s (data_key, data_value) VALUES (?, ?)
			 ON DUPLICATE KEY UPDATE data_value = VALUES(data_value)`, table)
		e.selectSQL = fmt.Sprintf(`SELECT data_value FROM %s WHERE data_key = ?`, table)
		e.deleteSQL = fmt.Sprintf(`DELETE FROM %s WHERE data_key = ?`, table)
	case DialectSQLite:
		e.createSQL = fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (data_key TEXT PRIMARY KEY, data_value BLOB NOT NULL)`, table)
		e.upsertSQL = fmt.Sprintf(
			`INSERT INTO %s (data_key, data_value) VALUES (?, ?)
			 ON CONFLICT (data_key) DO UPDATE SET data_value = excluded.data_value`, table)
		e.selectSQL = fmt.Sprintf(`SELECT data_value FROM %s WHERE data_key = ?`, table)
		e.deleteSQL = fmt.Sprintf(`DELETE FROM %s WHERE data_key = ?`, table)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return e, nil
}

// ID returns the endpoint's identity.
func (e *SQLEndpoint) ID() string { return e.id }

// EnsureSchema creates the backing table if it does not exist.
func (e *SQLEndpoint) EnsureSchema(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, e.createSQL); err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", e.table, err)
	}
	return nil
}

// Get retrieves the value for key.
func (e *SQLEndpoint) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := e.db.QueryRowContext(ctx, e.selectSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q from %s: %w", key, e.id, err)
	}
	return value, nil
}

// Put upserts the value for key.
func (e *SQLEndpoint) Put(ctx context.Context, key string, value []byte) error {
	if _, err := e.db.ExecContext(ctx, e.upsertSQL, key, value); err != nil {
		return fmt.Errorf("failed to write %q to %s: %w", key, e.id, err)
	}
	return nil
}

// Delete removes the row for key, if any.
func (e *SQLEndpoint) Delete(ctx context.Context, key string) error {
	if _, err := e.db.ExecContext(ctx, e.deleteSQL, key); err != nil {
		return fmt.Errorf("failed to delete %q from %s: %w", key, e.id, err)
	}
	return nil
}
