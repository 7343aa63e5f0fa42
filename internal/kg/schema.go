package kg

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultRelationship is assigned to edges whose schema entry declares no
// relationship type.
const DefaultRelationship = "related_to"

// NodeSchema declares one node label. The label doubles as the source
// table name. Key lists the declared natural-key columns, if any.
type NodeSchema struct {
	Label      string   `json:"id" validate:"required"`
	Properties []string `json:"properties"`
	Key        []string `json:"key,omitempty"`
}

// EdgeSchema declares one typed relationship between two labels, joined
// on a column pair.
type EdgeSchema struct {
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceColumn string `json:"source_column" validate:"required"`
	TargetColumn string `json:"target_column" validate:"required"`
	Relationship string `json:"relationship,omitempty"`
}

// GraphSchema is the node/edge mapping declaration. It usually arrives
// from an LLM, so it is parsed defensively and validated structurally
// before use.
type GraphSchema struct {
	Nodes []NodeSchema `json:"nodes" validate:"dive"`
	Edges []EdgeSchema `json:"edges" validate:"dive"`
}

var validate = validator.New()

// Synonym tables for schema field names. Generated schemas are not
// consistent about casing or vocabulary; each concept has an ordered
// candidate list tried in priority order.
var (
	nodeListKeys  = []string{"nodes", "entities"}
	edgeListKeys  = []string{"edges", "relationships"}
	nodeLabelKeys = []string{"id", "entity", "label", "name"}
	nodePropKeys  = []string{"properties", "columns"}
	nodeKeyKeys   = []string{"key", "primary_keys", "primary_key"}
	edgeSrcKeys   = []string{"source", "Source_Entity", "Source_Table", "from", "from_table"}
	edgeTgtKeys   = []string{"target", "Target_Entity", "Target_Table", "to", "parent_table"}
	edgeSrcCol    = []string{"source_column", "Source_Column", "from_column"}
	edgeTgtCol    = []string{"target_column", "Target_Column", "to_column", "parent_column"}
	edgeRelKeys   = []string{"relationship", "Relationship", "type"}
)

// keyColumnHint matches property names that look like identifiers
// (id, *_id, *Id, *ID) when no key is declared.
var keyColumnHint = regexp.MustCompile(`(?i:^id$|_id$)|Id$|ID$`)

// ParseGraphSchema decodes an untrusted graph-schema document, resolving
// field-name synonyms, and validates the result. Unparseable input is a
// fatal error; missing node or edge lists are not.
func ParseGraphSchema(data []byte) (*GraphSchema, error) {
	raw, err := decodeLoose(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph schema: %w", err)
	}

	schema := &GraphSchema{
		Nodes: []NodeSchema{},
		Edges: []EdgeSchema{},
	}

	for _, item := range listField(raw, nodeListKeys) {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("graph schema node entry is not an object: %v", item)
		}
		schema.Nodes = append(schema.Nodes, NodeSchema{
			Label:      stringField(entry, nodeLabelKeys),
			Properties: stringList(firstField(entry, nodePropKeys)),
			Key:        keyList(firstField(entry, nodeKeyKeys)),
		})
	}

	for _, item := range listField(raw, edgeListKeys) {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("graph schema edge entry is not an object: %v", item)
		}
		schema.Edges = append(schema.Edges, EdgeSchema{
			Source:       stringField(entry, edgeSrcKeys),
			Target:       stringField(entry, edgeTgtKeys),
			SourceColumn: stringField(entry, edgeSrcCol),
			TargetColumn: stringField(entry, edgeTgtCol),
			Relationship: stringField(entry, edgeRelKeys),
		})
	}

	if err := validate.Struct(schema); err != nil {
		return nil, fmt.Errorf("invalid graph schema: %w", err)
	}
	return schema, nil
}

// KeyColumns returns the natural-key columns for a label: the declared
// key when present, otherwise the first identifier-looking property.
// An empty result means callers must fall back to synthetic IDs.
func (s *GraphSchema) KeyColumns(label string) []string {
	for _, n := range s.Nodes {
		if n.Label != label {
			continue
		}
		if len(n.Key) > 0 {
			return n.Key
		}
		for _, p := range n.Properties {
			if keyColumnHint.MatchString(p) {
				return []string{p}
			}
		}
	}
	return nil
}

// decodeLoose handles plain JSON objects as well as double-encoded
// payloads (a JSON string containing a JSON object), which some LLM
// responses produce.
func decodeLoose(data []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj, nil
	}
	var nested string
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	if err := json.Unmarshal([]byte(nested), &obj); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return obj, nil
}

func firstField(m map[string]any, candidates []string) any {
	for _, k := range candidates {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(m map[string]any, candidates []string) string {
	if v, ok := firstField(m, candidates).(string); ok {
		return v
	}
	return ""
}

func listField(m map[string]any, candidates []string) []any {
	if v, ok := firstField(m, candidates).([]any); ok {
		return v
	}
	return nil
}

// stringList normalizes a property list that may hold bare strings or
// objects with a "name" field.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		switch p := item.(type) {
		case string:
			out = append(out, p)
		case map[string]any:
			if name, ok := p["name"].(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}

// keyList normalizes a key declaration that may be a single column, a
// comma-separated string, or a list.
func keyList(v any) []string {
	switch k := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(k, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range k {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}
