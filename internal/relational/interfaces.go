// Package relational provides the row-set model and schema/data extraction
// from relational sources (SQLite, DuckDB).
package relational

import "context"

// =============================================================================
// CORE INTERFACES
// =============================================================================

// SchemaExtractor introspects a relational source and pulls its contents
// into the row-set model.
type SchemaExtractor interface {
	// ExtractSchema introspects tables, columns, primary keys and foreign keys.
	ExtractSchema(ctx context.Context) (*Schema, error)
	// ExtractData pulls rows from every table in retrieval order.
	// limit <= 0 means all rows.
	ExtractData(ctx context.Context, limit int) (TableData, error)
	// Close releases the underlying connection.
	Close() error
}

// ExtractAll runs schema and data extraction in a single pass.
func ExtractAll(ctx context.Context, ex SchemaExtractor, limit int) (*Extraction, error) {
	schema, err := ex.ExtractSchema(ctx)
	if err != nil {
		return nil, err
	}
	data, err := ex.ExtractData(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &Extraction{Schema: schema, Data: data}, nil
}
