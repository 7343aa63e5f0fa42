package kg

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseGraphSchemaCanonical(t *testing.T) {
	doc := `{
		"nodes": [
			{"id": "airport", "properties": ["id", "city"], "key": "id"},
			{"id": "flight", "properties": ["id", "airport_id"]}
		],
		"edges": [
			{"source": "flight", "target": "airport",
			 "source_column": "airport_id", "target_column": "id",
			 "relationship": "DEPARTS_FROM"}
		]
	}`

	schema, err := ParseGraphSchema([]byte(doc))
	if err != nil {
		t.Fatalf("ParseGraphSchema: %v", err)
	}

	wantNodes := []NodeSchema{
		{Label: "airport", Properties: []string{"id", "city"}, Key: []string{"id"}},
		{Label: "flight", Properties: []string{"id", "airport_id"}},
	}
	if !reflect.DeepEqual(schema.Nodes, wantNodes) {
		t.Errorf("nodes = %+v, want %+v", schema.Nodes, wantNodes)
	}

	wantEdges := []EdgeSchema{{
		Source:       "flight",
		Target:       "airport",
		SourceColumn: "airport_id",
		TargetColumn: "id",
		Relationship: "DEPARTS_FROM",
	}}
	if !reflect.DeepEqual(schema.Edges, wantEdges) {
		t.Errorf("edges = %+v, want %+v", schema.Edges, wantEdges)
	}
}

func TestParseGraphSchemaSynonyms(t *testing.T) {
	// Generated schemas drift between vocabularies; all of these spell
	// the same mapping.
	doc := `{
		"entities": [
			{"entity": "airport", "columns": ["id", "city"], "primary_keys": ["id"]},
			{"name": "flight", "properties": [{"name": "id"}, {"name": "airport_id"}]}
		],
		"relationships": [
			{"Source_Entity": "flight", "Target_Entity": "airport",
			 "Source_Column": "airport_id", "Target_Column": "id",
			 "type": "DEPARTS_FROM"}
		]
	}`

	schema, err := ParseGraphSchema([]byte(doc))
	if err != nil {
		t.Fatalf("ParseGraphSchema: %v", err)
	}
	if schema.Nodes[0].Label != "airport" || schema.Nodes[1].Label != "flight" {
		t.Errorf("labels = %q, %q", schema.Nodes[0].Label, schema.Nodes[1].Label)
	}
	if !reflect.DeepEqual(schema.Nodes[0].Key, []string{"id"}) {
		t.Errorf("key = %v, want [id]", schema.Nodes[0].Key)
	}
	if !reflect.DeepEqual(schema.Nodes[1].Properties, []string{"id", "airport_id"}) {
		t.Errorf("properties = %v", schema.Nodes[1].Properties)
	}
	e := schema.Edges[0]
	if e.Source != "flight" || e.Target != "airport" || e.SourceColumn != "airport_id" ||
		e.TargetColumn != "id" || e.Relationship != "DEPARTS_FROM" {
		t.Errorf("edge = %+v", e)
	}
}

func TestParseGraphSchemaDoubleEncoded(t *testing.T) {
	inner := `{"nodes": [{"id": "airport", "properties": ["id"]}], "edges": []}`
	outer, err := json.Marshal(inner)
	if err != nil {
		t.Fatal(err)
	}

	schema, err := ParseGraphSchema(outer)
	if err != nil {
		t.Fatalf("ParseGraphSchema: %v", err)
	}
	if len(schema.Nodes) != 1 || schema.Nodes[0].Label != "airport" {
		t.Errorf("nodes = %+v", schema.Nodes)
	}
}

func TestParseGraphSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"nodes": [`},
		{"json but not an object", `[1, 2, 3]`},
		{"node entry not an object", `{"nodes": ["airport"]}`},
		{"node missing label", `{"nodes": [{"properties": ["id"]}]}`},
		{"edge missing join columns", `{"edges": [{"source": "a", "target": "b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGraphSchema([]byte(tt.doc)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseGraphSchemaEmptyListsAllowed(t *testing.T) {
	schema, err := ParseGraphSchema([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseGraphSchema: %v", err)
	}
	if len(schema.Nodes) != 0 || len(schema.Edges) != 0 {
		t.Errorf("schema = %+v, want empty lists", schema)
	}
}

func TestKeyColumns(t *testing.T) {
	schema := &GraphSchema{Nodes: []NodeSchema{
		{Label: "account", Properties: []string{"acct_no", "owner"}, Key: []string{"acct_no"}},
		{Label: "airport", Properties: []string{"city", "airport_id", "name"}},
		{Label: "order", Properties: []string{"orderID", "total"}},
		{Label: "note", Properties: []string{"body", "created_at"}},
	}}

	tests := []struct {
		label string
		want  []string
	}{
		{"account", []string{"acct_no"}},
		{"airport", []string{"airport_id"}},
		{"order", []string{"orderID"}},
		{"note", nil},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := schema.KeyColumns(tt.label); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("KeyColumns(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestKeyListForms(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"single string", `{"nodes": [{"id": "t", "key": "id"}]}`, []string{"id"}},
		{"comma separated", `{"nodes": [{"id": "t", "key": "a, b"}]}`, []string{"a", "b"}},
		{"list", `{"nodes": [{"id": "t", "key": ["a", "b"]}]}`, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := ParseGraphSchema([]byte(tt.doc))
			if err != nil {
				t.Fatalf("ParseGraphSchema: %v", err)
			}
			if !reflect.DeepEqual(schema.Nodes[0].Key, tt.want) {
				t.Errorf("key = %v, want %v", schema.Nodes[0].Key, tt.want)
			}
		})
	}
}
