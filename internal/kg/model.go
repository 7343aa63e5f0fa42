// Package kg holds the knowledge-graph model and the relational-to-graph
// mapper. Mapping is a pure, deterministic function over an extraction
// snapshot; nothing here touches a database.
package kg

import "kgbridge/internal/relational"

// Node is a labeled graph vertex. ID is synthesized as "{label}_{index}"
// from the row's position in its source table, so identity is a function
// of (label, row position), not of any natural key.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties relational.Row `json:"properties"`
}

// Edge is a typed relationship between two nodes, referenced by node ID.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
}

// Graph is the mapper output consumed by the loader and the evaluators.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
