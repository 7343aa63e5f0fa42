package eval

import (
	"testing"

	"kgbridge/internal/kg"
	"kgbridge/internal/relational"
)

var flightFK = []relational.ForeignKey{{
	FromTable:    "flight",
	ParentTable:  "airport",
	FromColumn:   "airport_id",
	ParentColumn: "id",
}}

func TestEvalRelationshipCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		data    relational.TableData
		edges   []kg.Edge
		want    RelationshipResult
		wantRC  float64
	}{
		{
			name: "all resolvable and materialized",
			data: relational.TableData{
				"airport": {{"id": 1}, {"id": 2}},
				"flight":  {{"airport_id": 1}, {"airport_id": 2}},
			},
			edges: []kg.Edge{
				{Source: "flight_0", Target: "airport_0"},
				{Source: "flight_1", Target: "airport_1"},
			},
			want:   RelationshipResult{Expected: 2, Actual: 2, RC: 1},
			wantRC: 1,
		},
		{
			name: "null and dangling rows excluded from expected",
			data: relational.TableData{
				"airport": {{"id": 1}},
				"flight": {
					{"airport_id": 1},
					{"airport_id": nil},
					{"airport_id": 99},
					{"other": "x"},
				},
			},
			edges:  []kg.Edge{{Source: "flight_0", Target: "airport_0"}},
			want:   RelationshipResult{Expected: 1, Actual: 1, NullFK: 1, RC: 1},
			wantRC: 1,
		},
		{
			name: "missing edges lower the ratio",
			data: relational.TableData{
				"airport": {{"id": 1}, {"id": 2}},
				"flight":  {{"airport_id": 1}, {"airport_id": 2}},
			},
			edges:  []kg.Edge{{Source: "flight_0", Target: "airport_0"}},
			want:   RelationshipResult{Expected: 2, Actual: 1, RC: 0.5},
			wantRC: 0.5,
		},
		{
			name: "zero expected yields zero not NaN",
			data: relational.TableData{
				"airport": {{"id": 1}},
				"flight":  {{"airport_id": nil}},
			},
			edges:  nil,
			want:   RelationshipResult{NullFK: 1},
			wantRC: 0,
		},
		{
			name: "reversed edge direction still counted",
			data: relational.TableData{
				"airport": {{"id": 1}},
				"flight":  {{"airport_id": 1}},
			},
			edges:  []kg.Edge{{Source: "airport_0", Target: "flight_0"}},
			want:   RelationshipResult{Expected: 1, Actual: 1, RC: 1},
			wantRC: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvalRelationshipCompleteness(flightFK, tt.data, tt.edges)
			rel, ok := got.PerRelationship["airport_flight"]
			if !ok {
				t.Fatalf("missing per-relationship entry, got %+v", got.PerRelationship)
			}
			if rel != tt.want {
				t.Errorf("relationship = %+v, want %+v", rel, tt.want)
			}
			if got.RC != tt.wantRC {
				t.Errorf("RC = %v, want %v", got.RC, tt.wantRC)
			}
		})
	}
}

func TestEvalRelationshipCompletenessNoForeignKeys(t *testing.T) {
	got := EvalRelationshipCompleteness(nil, relational.TableData{"t": {{}}}, nil)
	if len(got.PerRelationship) != 0 || got.RC != 0 {
		t.Errorf("got %+v, want empty report", got)
	}
}

func TestEvalRelationshipCompletenessAggregateIsSumBased(t *testing.T) {
	// The database aggregate divides summed actuals by summed expecteds,
	// so a large foreign key dominates a small one.
	fks := []relational.ForeignKey{
		{FromTable: "flight", ParentTable: "airport", FromColumn: "airport_id", ParentColumn: "id"},
		{FromTable: "crew", ParentTable: "flight", FromColumn: "flight_id", ParentColumn: "id"},
	}
	data := relational.TableData{
		"airport": {{"id": 1}},
		"flight":  {{"id": 7, "airport_id": 1}, {"id": 8, "airport_id": 1}, {"id": 9, "airport_id": 1}},
		"crew":    {{"flight_id": 7}},
	}
	edges := []kg.Edge{
		{Source: "flight_0", Target: "airport_0"},
		{Source: "flight_1", Target: "airport_0"},
		{Source: "flight_2", Target: "airport_0"},
	}

	got := EvalRelationshipCompleteness(fks, data, edges)
	if got.TotalExpected != 4 || got.TotalActual != 3 {
		t.Fatalf("totals = %d/%d, want 3/4", got.TotalActual, got.TotalExpected)
	}
	if got.RC != 0.75 {
		t.Errorf("RC = %v, want 0.75", got.RC)
	}
}

func TestEvalRelationshipCompletenessDuplicateTablePair(t *testing.T) {
	// Two foreign keys between the same tables share a report key, so only
	// one per-relationship entry survives; the totals must still count both.
	fks := []relational.ForeignKey{
		{FromTable: "flight", ParentTable: "airport", FromColumn: "src_airport", ParentColumn: "id"},
		{FromTable: "flight", ParentTable: "airport", FromColumn: "dst_airport", ParentColumn: "id"},
	}
	data := relational.TableData{
		"airport": {{"id": 1}, {"id": 2}},
		"flight":  {{"src_airport": 1, "dst_airport": 2}},
	}
	edges := []kg.Edge{
		{Source: "flight_0", Target: "airport_0"},
		{Source: "flight_0", Target: "airport_1"},
	}

	got := EvalRelationshipCompleteness(fks, data, edges)
	if len(got.PerRelationship) != 1 {
		t.Errorf("per-relationship entries = %d, want 1 (shared key)", len(got.PerRelationship))
	}
	if got.TotalExpected != 2 || got.TotalActual != 4 {
		t.Errorf("totals = %d/%d expected/actual, want 2/4", got.TotalExpected, got.TotalActual)
	}
}

func TestEdgeMatchingModes(t *testing.T) {
	// "Car" prefixes "Card_Holder", so prefix matching over-counts edges
	// that exact matching attributes correctly.
	fks := []relational.ForeignKey{{
		FromTable: "Car", ParentTable: "Owner", FromColumn: "owner_id", ParentColumn: "id",
	}}
	data := relational.TableData{
		"Owner": {{"id": 1}},
		"Car":   {{"owner_id": 1}},
	}
	edges := []kg.Edge{
		{Source: "Car_0", Target: "Owner_0"},
		{Source: "Card_Holder_0", Target: "Owner_0"},
	}

	prefix := EvalRelationshipCompletenessMode(fks, data, edges, MatchPrefix)
	if got := prefix.PerRelationship["Owner_Car"].Actual; got != 2 {
		t.Errorf("prefix actual = %d, want 2", got)
	}

	exact := EvalRelationshipCompletenessMode(fks, data, edges, MatchExact)
	if got := exact.PerRelationship["Owner_Car"].Actual; got != 1 {
		t.Errorf("exact actual = %d, want 1", got)
	}
}

func TestNodeLabel(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"airport_0", "airport"},
		{"Card_Holder_12", "Card_Holder"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := nodeLabel(tt.id); got != tt.want {
			t.Errorf("nodeLabel(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
