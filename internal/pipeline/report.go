package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"kgbridge/internal/eval"
)

// WriteSummaryCSV writes the flattened per-database evaluation summary.
// Ratios are rounded to three decimals, matching the JSON reports' grain.
func WriteSummaryCSV(path string, summaries []eval.DBSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"db_name", "schema_completeness", "relationship_completeness"}); err != nil {
		return err
	}
	for _, s := range summaries {
		record := []string{
			s.DBName,
			strconv.FormatFloat(s.SchemaCompleteness, 'f', 3, 64),
			strconv.FormatFloat(s.RelationshipCompleteness, 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
