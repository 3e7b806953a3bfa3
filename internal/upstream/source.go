// Package upstream reads rows from the tabular data source that snapshots
// mirror. Any database/sql driver registered here can serve as the source;
// sqlite3 (mattn/go-sqlite3) and postgres (lib/pq) are built in.
package upstream

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/srcf/srcf-sync/internal/jcs"
)

// Drivers lists the database/sql driver names a Source can be opened with.
var Drivers = []string{"sqlite3", "postgres"}

// Row is one upstream row: its identifier as text and its columns as an
// object keyed by column name.
type Row struct {
	ID     string
	Record jcs.Object
}

// Source reads rows from one database.
type Source struct {
	db     *sql.DB
	driver string
}

// Open connects to the database at dsn using driver.
func Open(driver, dsn string) (*Source, error) {
	if !slices.Contains(Drivers, driver) {
		return nil, fmt.Errorf("unsupported driver %q: must be one of %v", driver, Drivers)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s source: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1) // Pragmas below are per connection
		db.SetMaxIdleConns(1) // Keep one connection ready
		if err := configureSQLite(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Source{db: db, driver: driver}, nil
}

// configureSQLite makes the connection read-only and tolerant of an
// upstream writer holding the lock.
func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA query_only = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Rows returns every row of table ordered by idColumn.
func (s *Source) Rows(ctx context.Context, table, idColumn string) ([]Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC", QuoteIdent(table), QuoteIdent(idColumn))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	idIdx := slices.Index(cols, idColumn)
	if idIdx < 0 {
		return nil, fmt.Errorf("table %s has no column %q", table, idColumn)
	}

	var result []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}

		id, err := FormatID(vals[idIdx])
		if err != nil {
			return nil, fmt.Errorf("table %s row %d: %w", table, len(result)+1, err)
		}
		record := make(jcs.Object, len(cols))
		for i, col := range cols {
			record[col] = ColumnValue(vals[i])
		}
		result = append(result, Row{ID: id, Record: record})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return result, nil
}

// QuoteIdent double-quotes an SQL identifier, doubling embedded quotes.
// Both SQLite and PostgreSQL accept this form.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnValue maps a scanned driver value to a jcs.Value.
// Byte slices that are not valid UTF-8 are base64-encoded (standard
// alphabet) so every column has a canonical form.
func ColumnValue(v any) jcs.Value {
	switch val := v.(type) {
	case nil:
		return jcs.Null{}
	case int64:
		return jcs.Number(float64(val))
	case float64:
		return jcs.Number(val)
	case bool:
		return jcs.Bool(val)
	case string:
		return jcs.String(val)
	case []byte:
		if utf8.Valid(val) {
			return jcs.String(string(val))
		}
		return jcs.String(base64.StdEncoding.EncodeToString(val))
	case time.Time:
		return jcs.String(val.UTC().Format(time.RFC3339Nano))
	default:
		return jcs.String(fmt.Sprint(val))
	}
}

// FormatID renders a scanned id column value as a row id.
func FormatID(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", fmt.Errorf("id is NULL")
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return jcs.FormatNumber(val)
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	default:
		return fmt.Sprint(val), nil
	}
}
