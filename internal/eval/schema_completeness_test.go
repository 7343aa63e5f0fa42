package eval

import (
	"math"
	"testing"

	"kgbridge/internal/kg"
	"kgbridge/internal/relational"
)

func nodesFor(label string, n int) []kg.Node {
	nodes := make([]kg.Node, n)
	for i := range nodes {
		nodes[i] = kg.Node{ID: label + "_0", Label: label}
	}
	return nodes
}

func TestEvalSchemaCompleteness(t *testing.T) {
	tests := []struct {
		name      string
		data      relational.TableData
		nodes     []kg.Node
		wantTable map[string]TableCompleteness
		wantSC    float64
	}{
		{
			name: "full coverage",
			data: relational.TableData{
				"airport": {{}, {}},
			},
			nodes: nodesFor("airport", 2),
			wantTable: map[string]TableCompleteness{
				"airport": {RDSRecords: 2, KGNodes: 2, SC: 1},
			},
			wantSC: 1,
		},
		{
			name: "unmapped table drags the mean down",
			data: relational.TableData{
				"airport": {{}, {}},
				"flight":  {{}, {}, {}, {}},
			},
			nodes: nodesFor("airport", 2),
			wantTable: map[string]TableCompleteness{
				"airport": {RDSRecords: 2, KGNodes: 2, SC: 1},
				"flight":  {RDSRecords: 4, KGNodes: 0, SC: 0},
			},
			wantSC: 0.5,
		},
		{
			name: "zero-row table scores zero not NaN",
			data: relational.TableData{
				"empty": {},
			},
			nodes: nil,
			wantTable: map[string]TableCompleteness{
				"empty": {RDSRecords: 0, KGNodes: 0, SC: 0},
			},
			wantSC: 0,
		},
		{
			name:      "no tables",
			data:      relational.TableData{},
			nodes:     nodesFor("airport", 2),
			wantTable: map[string]TableCompleteness{},
			wantSC:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvalSchemaCompleteness(tt.data, tt.nodes)
			if math.IsNaN(got.SC) {
				t.Fatal("aggregate SC is NaN")
			}
			if got.SC != tt.wantSC {
				t.Errorf("SC = %v, want %v", got.SC, tt.wantSC)
			}
			if len(got.PerTable) != len(tt.wantTable) {
				t.Fatalf("per-table = %+v, want %+v", got.PerTable, tt.wantTable)
			}
			for table, want := range tt.wantTable {
				if got.PerTable[table] != want {
					t.Errorf("table %s = %+v, want %+v", table, got.PerTable[table], want)
				}
			}
		})
	}
}

func TestEvalSchemaCompletenessUnweightedMean(t *testing.T) {
	// A tiny, fully mapped table and a huge, unmapped one contribute
	// equally to the aggregate.
	data := relational.TableData{
		"small": {{}},
		"big":   make([]relational.Row, 1000),
	}
	got := EvalSchemaCompleteness(data, nodesFor("small", 1))
	if got.SC != 0.5 {
		t.Errorf("SC = %v, want 0.5", got.SC)
	}
}
