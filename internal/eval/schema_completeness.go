// Package eval measures how faithfully a mapped graph preserves the
// relational source: schema completeness (node-creation fidelity) and
// relationship completeness (edge-creation fidelity). The definitions
// follow "An Automated Graph Construction Approach from Relational
// Databases to Neo4j" (IEEE, 2023).
package eval

import (
	"kgbridge/internal/kg"
	"kgbridge/internal/relational"
)

// TableCompleteness is the per-table schema-completeness result.
type TableCompleteness struct {
	RDSRecords int     `json:"rds_records"`
	KGNodes    int     `json:"kg_nodes"`
	SC         float64 `json:"sc"`
}

// SchemaCompleteness is the full schema-completeness report for one
// database. SC is the unweighted arithmetic mean over tables: a 2-row
// table weighs the same as a 2-million-row one.
type SchemaCompleteness struct {
	PerTable map[string]TableCompleteness `json:"per_table"`
	SC       float64                      `json:"sc"`
}

// EvalSchemaCompleteness compares per-table row counts against per-label
// node counts. Every table in the source is reported, matching label or
// not; a table with zero rows scores 0 by convention, never NaN.
func EvalSchemaCompleteness(data relational.TableData, nodes []kg.Node) SchemaCompleteness {
	nodeCounts := make(map[string]int)
	for _, n := range nodes {
		nodeCounts[n.Label]++
	}

	result := SchemaCompleteness{
		PerTable: make(map[string]TableCompleteness, len(data)),
	}

	var sum float64
	for table, rows := range data {
		tc := TableCompleteness{
			RDSRecords: len(rows),
			KGNodes:    nodeCounts[table],
		}
		if tc.RDSRecords > 0 {
			tc.SC = float64(tc.KGNodes) / float64(tc.RDSRecords)
		}
		result.PerTable[table] = tc
		sum += tc.SC
	}

	if len(result.PerTable) > 0 {
		result.SC = sum / float64(len(result.PerTable))
	}
	return result
}
