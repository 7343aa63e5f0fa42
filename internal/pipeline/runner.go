package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"kgbridge/internal/eval"
	"kgbridge/internal/kg"
	"kgbridge/internal/relational"
)

// Source names one relational database and knows how to open it. Open is
// called inside the worker so each run owns its connection.
type Source struct {
	Name string
	Open func() (relational.SchemaExtractor, error)
}

// MetaGraphBuilder optionally mirrors each generated schema as an
// entity-level metagraph in the graph store.
type MetaGraphBuilder interface {
	BuildMetaGraph(ctx context.Context, schema *kg.GraphSchema) error
}

// BatchRunner processes many sources, each as an isolated run. A failed
// source is logged and skipped; it never aborts the rest of the batch.
type BatchRunner struct {
	Generator   SchemaGenerator
	Loader      GraphLoader // nil skips persistence
	MetaBuilder MetaGraphBuilder
	Artifacts   *ArtifactStore
	RowLimit    int
	Workers     int // concurrent sources; <= 1 runs serially
}

// Run converts and evaluates every source, returning summaries for the
// sources that succeeded, ordered by database name.
func (r *BatchRunner) Run(ctx context.Context, sources []Source) []eval.DBSummary {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		summaries []eval.DBSummary
	)
	sem := make(chan struct{}, workers)

	for _, src := range sources {
		wg.Add(1)
		sem <- struct{}{}
		go func(src Source) {
			defer wg.Done()
			defer func() { <-sem }()

			summary, err := r.runOne(ctx, src)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error in processing %s: %v\n", src.Name, err)
				return
			}
			mu.Lock()
			summaries = append(summaries, summary)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].DBName < summaries[j].DBName
	})
	return summaries
}

func (r *BatchRunner) runOne(ctx context.Context, src Source) (eval.DBSummary, error) {
	ex, err := src.Open()
	if err != nil {
		return eval.DBSummary{}, fmt.Errorf("open source: %w", err)
	}
	defer ex.Close()

	payload, err := Run(ctx, src.Name, ex, r.Generator, r.Loader, r.RowLimit)
	if err != nil {
		return eval.DBSummary{}, err
	}

	if r.MetaBuilder != nil {
		if err := r.MetaBuilder.BuildMetaGraph(ctx, payload.GraphSchema); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: metagraph build for %s failed: %v\n", src.Name, err)
		}
	}

	if r.Artifacts != nil {
		if err := r.Artifacts.SavePayload(payload); err != nil {
			// Artifacts are a convenience; a failed write should not void
			// an otherwise successful conversion.
			fmt.Fprintf(os.Stderr, "Warning: saving artifacts for %s failed: %v\n", src.Name, err)
		}
	}

	fmt.Fprintf(os.Stderr, "%s: SC=%.3f RC=%.3f (%d nodes, %d edges)\n",
		payload.DBName,
		payload.Summary.SchemaCompleteness,
		payload.Summary.RelationshipCompleteness,
		len(payload.Graph.Nodes), len(payload.Graph.Edges))

	return payload.Summary, nil
}
