package relational

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3" // Register SQLite driver
)

// SQLiteExtractor introspects and reads a SQLite database file.
type SQLiteExtractor struct {
	db   *sql.DB
	path string
}

// NewSQLiteExtractor opens a SQLite database for extraction.
// The file must already exist; a missing path is an input error, not
// something to create silently (sqlite would otherwise make an empty DB).
func NewSQLiteExtractor(path string) (*SQLiteExtractor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteExtractor{db: db, path: path}, nil
}

// DB returns the underlying sql.DB instance.
func (e *SQLiteExtractor) DB() *sql.DB {
	return e.db
}

// Close releases database resources.
func (e *SQLiteExtractor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// ExtractSchema introspects tables, columns, primary keys and foreign keys
// via sqlite_master and the table_info/foreign_key_list pragmas.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context) (*Schema, error) {
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

		fks, err := e.foreignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		schema.ForeignKeys = append(schema.ForeignKeys, fks...)
	}

	return schema, nil
}

// ExtractData pulls all rows from every table, preserving SELECT order.
func (e *SQLiteExtractor) ExtractData(ctx context.Context, limit int) (TableData, error) {
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

func (e *SQLiteExtractor) tableNames(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name != 'sqlite_sequence'")
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

func (e *SQLiteExtractor) tableInfo(ctx context.Context, table string) (TableSchema, error) {
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
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return ts, err
		}
		ts.Columns = append(ts.Columns, name)
		if pk != 0 {
			ts.PrimaryKey = append(ts.PrimaryKey, name)
		}
	}
	return ts, rows.Err()
}

func (e *SQLiteExtractor) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		// id, seq, table, from, to, on_update, on_delete, match
		var (
			id, seq            int
			parent, from       string
			to                 sql.NullString
			onUpd, onDel, mtch string
		)
		if err := rows.Scan(&id, &seq, &parent, &from, &to, &onUpd, &onDel, &mtch); err != nil {
			return nil, err
		}
		fks = append(fks, ForeignKey{
			FromTable:    table,
			ParentTable:  parent,
			FromColumn:   from,
			// SQLite leaves "to" NULL when the FK references the parent's
			// implicit primary key; keep it empty and let callers fall back.
			ParentColumn: to.String,
		})
	}
	return fks, rows.Err()
}

// scanRows converts a generic result set into ordered Row records.
// []byte values are normalized to string so rows survive a JSON round trip.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(Row, len(cols))
		for i, col := range cols {
			switch v := values[i].(type) {
			case []byte:
				record[col] = string(v)
			default:
				record[col] = v
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
