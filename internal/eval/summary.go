package eval

// DBSummary is the flattened per-database result row used in CSV reports.
type DBSummary struct {
	DBName                   string  `json:"db_name"`
	SchemaCompleteness       float64 `json:"schema_completeness"`
	RelationshipCompleteness float64 `json:"relationship_completeness"`
}

// Summarize flattens the two completeness reports into one summary row.
func Summarize(dbName string, sc SchemaCompleteness, rc RelationshipCompleteness) DBSummary {
	return DBSummary{
		DBName:                   dbName,
		SchemaCompleteness:       sc.SC,
		RelationshipCompleteness: rc.RC,
	}
}
