package relational

// Row is a single record: column name -> scalar value (string, number,
// boolean, or nil). Columns may be sparse; consumers must tolerate
// missing keys.
type Row map[string]any

// TableData maps a table name to its rows in retrieval order. Row order
// is significant: downstream node identity is derived from row position.
type TableData map[string][]Row

// TableSchema describes a single table's shape.
type TableSchema struct {
	Columns    []string `json:"columns"`
	PrimaryKey []string `json:"primary_key"`
}

// ForeignKey describes one foreign-key constraint between two tables.
type ForeignKey struct {
	FromTable    string `json:"from_table"`
	ParentTable  string `json:"parent_table"`
	FromColumn   string `json:"from_column"`
	ParentColumn string `json:"parent_column"`
}

// Schema is the introspected shape of a relational database.
type Schema struct {
	Tables      map[string]TableSchema `json:"tables"`
	ForeignKeys []ForeignKey           `json:"foreign_keys"`
}

// Extraction bundles schema and data from a single extraction pass.
type Extraction struct {
	Schema *Schema   `json:"schema"`
	Data   TableData `json:"data"`
}

// IsScalar reports whether a row value is a comparable scalar. Join
// indexes and value sets key maps by row values, so anything else
// (nested arrays or objects from loosely-shaped JSON) must be skipped
// rather than used as a map key.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
