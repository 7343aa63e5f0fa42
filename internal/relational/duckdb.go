package relational

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb" // Register DuckDB driver
)

// DuckDBConfig holds configuration options for the DuckDB source.
type DuckDBConfig struct {
	Threads       int           // Number of threads for DuckDB (0 = default)
	MemoryLimitGB int           // Memory limit in GB (0 = default)
	Timeout       time.Duration // Query timeout (0 = no timeout)
}

// DuckDBExtractor reads schema and data from a DuckDB database.
// DuckDB sources are read-only inputs here; serial access is enough.
type DuckDBExtractor struct {
	db     *sql.DB
	config DuckDBConfig
}

// DuckDBOption configures the DuckDB extractor.
type DuckDBOption func(*DuckDBExtractor)

// WithThreads sets the number of DuckDB threads.
func WithThreads(n int) DuckDBOption {
	return func(e *DuckDBExtractor) {
		e.config.Threads = n
	}
}

// WithMemoryLimit sets the DuckDB memory limit in GB.
func WithMemoryLimit(gb int) DuckDBOption {
	return func(e *DuckDBExtractor) {
		e.config.MemoryLimitGB = gb
	}
}

// WithTimeout sets the query timeout.
func WithTimeout(d time.Duration) DuckDBOption {
	return func(e *DuckDBExtractor) {
		e.config.Timeout = d
	}
}

// NewDuckDBExtractor opens a DuckDB database for extraction.
// DSN examples:
//   - "" or ":memory:" for an in-memory database
//   - "/path/to/file.db" for a file-based database
func NewDuckDBExtractor(dsn string, opts ...DuckDBOption) (*DuckDBExtractor, error) {
	ex := &DuckDBExtractor{}
	for _, opt := range opts {
		if opt != nil {
			opt(ex)
		}
	}

	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	ctx := context.Background()
	if ex.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ex.config.Timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	// DuckDB is embedded; a single connection avoids writer contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ex.db = db

	if ex.config.Threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA threads=%d", ex.config.Threads)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting threads: %w", err)
		}
	}
	if ex.config.MemoryLimitGB > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA memory_limit='%dGB'", ex.config.MemoryLimitGB)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting memory limit: %w", err)
		}
	}

	return ex, nil
}

// DB returns the underlying sql.DB instance.
func (e *DuckDBExtractor) DB() *sql.DB {
	return e.db
}

// Close releases database resources.
func (e *DuckDBExtractor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// ExtractSchema introspects tables, columns, primary keys and foreign keys.
// DuckDB understands the same table_info pragma as SQLite; foreign keys come
// from duckdb_constraints(). Only single-column foreign keys are modeled.
func (e *DuckDBExtractor) ExtractSchema(ctx context.Context) (*Schema, error) {
	tables, err := e.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	schema := &Schema{
		Tables:      make(map[string]TableSchema, len(tables)),
		ForeignKeys: []ForeignKey{},
	}

	for _, name := range tables {
		ts, err := e.tableInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		schema.Tables[name] = ts
	}

	fks, err := e.foreignKeys(ctx)
	if err != nil {
		return nil, err
	}
	schema.ForeignKeys = fks

	return schema, nil
}

// ExtractData pulls all rows from every table, preserving SELECT order.
func (e *DuckDBExtractor) ExtractData(ctx context.Context, limit int) (TableData, error) {
	tables, err := e.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	data := make(TableData, len(tables))
	for _, name := range tables {
		query := fmt.Sprintf("SELECT * FROM %q", name)
		if limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", limit)
		}

		rows, err := e.db.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", name, err)
		}
		records, err := scanRows(rows)
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", name, err)
		}
		data[name] = records
	}

	return data, nil
}

func (e *DuckDBExtractor) tableNames(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'main' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (e *DuckDBExtractor) tableInfo(ctx context.Context, table string) (TableSchema, error) {
	ts := TableSchema{Columns: []string{}, PrimaryKey: []string{}}

	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return ts, fmt.Errorf("failed to introspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull bool
			dflt    sql.NullString
			pk      bool
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return ts, err
		}
		ts.Columns = append(ts.Columns, name)
		if pk {
			ts.PrimaryKey = append(ts.PrimaryKey, name)
		}
	}
	return ts, rows.Err()
}

func (e *DuckDBExtractor) foreignKeys(ctx context.Context) ([]ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT table_name,
		       constraint_column_names[1] AS from_column,
		       referenced_table,
		       referenced_column_names[1] AS parent_column
		FROM duckdb_constraints()
		WHERE constraint_type = 'FOREIGN KEY'
		ORDER BY table_name, from_column`)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys: %w", err)
	}
	defer rows.Close()

	fks := []ForeignKey{}
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.FromTable, &fk.FromColumn, &fk.ParentTable, &fk.ParentColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
