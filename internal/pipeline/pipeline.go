// Package pipeline orchestrates the conversion of relational sources into
// knowledge graphs and their fidelity evaluation: extract -> discover ->
// map -> load -> evaluate.
package pipeline

import (
	"context"
	"fmt"

	"kgbridge/internal/eval"
	"kgbridge/internal/kg"
	"kgbridge/internal/relational"
)

// SchemaGenerator produces a node/edge schema for a relational schema.
// In production this is the Gemini discovery agent.
type SchemaGenerator interface {
	GenerateGraphSchema(ctx context.Context, schema *relational.Schema) (*kg.GraphSchema, error)
}

// GraphLoader persists a mapped graph. Loads must behave as an
// idempotent-merge sink so repeated runs do not corrupt state.
type GraphLoader interface {
	LoadGraph(ctx context.Context, g *kg.Graph, schema *kg.GraphSchema) error
}

// Payload bundles everything one source produced: inputs, mapped graph,
// and both completeness reports.
type Payload struct {
	DBName                   string
	Extraction               *relational.Extraction
	GraphSchema              *kg.GraphSchema
	Graph                    *kg.Graph
	SchemaCompleteness       eval.SchemaCompleteness
	RelationshipCompleteness eval.RelationshipCompleteness
	Summary                  eval.DBSummary
}

// Run executes the full pipeline for a single source. loader may be nil to
// skip persistence; mapping and evaluation run either way. rowLimit <= 0
// extracts all rows.
func Run(ctx context.Context, dbName string, ex relational.SchemaExtractor, gen SchemaGenerator, loader GraphLoader, rowLimit int) (*Payload, error) {
	extraction, err := relational.ExtractAll(ctx, ex, rowLimit)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", dbName, err)
	}

	graphSchema, err := gen.GenerateGraphSchema(ctx, extraction.Schema)
	if err != nil {
		return nil, fmt.Errorf("discover graph schema for %s: %w", dbName, err)
	}

	graph := kg.Map(extraction.Data, graphSchema)

	if loader != nil {
		if err := loader.LoadGraph(ctx, graph, graphSchema); err != nil {
			return nil, fmt.Errorf("load graph for %s: %w", dbName, err)
		}
	}

	sc := eval.EvalSchemaCompleteness(extraction.Data, graph.Nodes)
	rc := eval.EvalRelationshipCompleteness(extraction.Schema.ForeignKeys, extraction.Data, graph.Edges)

	return &Payload{
		DBName:                   dbName,
		Extraction:               extraction,
		GraphSchema:              graphSchema,
		Graph:                    graph,
		SchemaCompleteness:       sc,
		RelationshipCompleteness: rc,
		Summary:                  eval.Summarize(dbName, sc, rc),
	}, nil
}
