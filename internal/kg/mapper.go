package kg

import (
	"fmt"

	"kgbridge/internal/relational"
)

// Map materializes a graph from relational rows and a node/edge schema.
//
// Nodes: one per source row, ID "{label}_{index}" from the row's position,
// carrying the full row as properties. A label with no matching table
// yields no nodes, never an error.
//
// Edges: for each edge declaration a lookup index is built over the target
// table (join value -> node ID) in one forward pass, so when the join
// column is not unique on the target side the last row with a given value
// wins. That tie-break is policy, not a correctness guarantee. Source rows
// missing the join column, carrying a null join value, or resolving to no
// target are skipped.
//
// Map is pure and deterministic: identical inputs produce identical node
// and edge sequences.
func Map(data relational.TableData, schema *GraphSchema) *Graph {
	graph := &Graph{
		Nodes: []Node{},
		Edges: []Edge{},
	}

	for _, node := range schema.Nodes {
		for i, row := range data[node.Label] {
			graph.Nodes = append(graph.Nodes, Node{
				ID:         nodeID(node.Label, i),
				Label:      node.Label,
				Properties: row,
			})
		}
	}

	for _, edge := range schema.Edges {
		relType := edge.Relationship
		if relType == "" {
			relType = DefaultRelationship
		}

		targetIndex := make(map[any]string)
		for i, row := range data[edge.Target] {
			value, ok := row[edge.TargetColumn]
			if !ok || !relational.IsScalar(value) {
				continue
			}
			targetIndex[value] = nodeID(edge.Target, i)
		}

		for i, row := range data[edge.Source] {
			value, ok := row[edge.SourceColumn]
			if !ok || !relational.IsScalar(value) {
				continue
			}
			targetID, ok := targetIndex[value]
			if !ok {
				continue
			}
			graph.Edges = append(graph.Edges, Edge{
				Source:       nodeID(edge.Source, i),
				Target:       targetID,
				Relationship: relType,
			})
		}
	}

	return graph
}

func nodeID(label string, index int) string {
	return fmt.Sprintf("%s_%d", label, index)
}
