package io

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/paveg/churnprep/internal/dataframe"
)

// Supported SQL driver names.
const (
	DriverPostgres  = "postgres"
	DriverSnowflake = "snowflake"
)

// SnowflakeConfig holds the connection parameters for a Snowflake account.
type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
}

// DSN builds a Snowflake data source name.
func (c SnowflakeConfig) DSN() (string, error) {
	dsn, err := sf.DSN(&sf.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Database:  c.Database,
		Schema:    c.Schema,
		Warehouse: c.Warehouse,
		Role:      c.Role,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}
	return dsn, nil
}

// OpenSQL opens a connection pool and verifies it with a ping bounded by
// timeout.
func OpenSQL(ctx context.Context, driver, dsn string, timeout time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s connection: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return db, nil
}

// SQLReader reads the result of a query as a table of text columns. NULL
// becomes a missing value.
type SQLReader struct {
	db    *sqlx.DB
	query string
	args  []interface{}
	mem   memory.Allocator
}

// NewSQLReader creates a reader for query on db.
func NewSQLReader(db *sqlx.DB, query string, mem memory.Allocator, args ...interface{}) *SQLReader {
	return &SQLReader{db: db, query: query, args: args, mem: mem}
}

// TableQuery returns a query selecting every row of table.
func TableQuery(table string) string {
	return "SELECT * FROM " + table
}

// Read runs the query.
func (r *SQLReader) Read(ctx context.Context) (*dataframe.DataFrame, error) {
	rows, err := r.db.QueryxContext(ctx, r.query, r.args...)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	records := [][]string{columns}
	cells := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(records)-1, err)
		}
		record := make([]string, len(columns))
		for i, cell := range cells {
			if cell.Valid {
				record[i] = cell.String
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return recordsToFrame(records, true, r.mem)
}
