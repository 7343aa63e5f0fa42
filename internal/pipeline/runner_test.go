package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kgbridge/internal/eval"
	"kgbridge/internal/relational"
)

func TestBatchRunnerIsolatesFailures(t *testing.T) {
	runner := &BatchRunner{Generator: testGenerator()}

	sources := []Source{
		{Name: "ok", Open: func() (relational.SchemaExtractor, error) {
			return testExtractor(), nil
		}},
		{Name: "bad", Open: func() (relational.SchemaExtractor, error) {
			return nil, errors.New("file is locked")
		}},
	}

	summaries := runner.Run(context.Background(), sources)
	if len(summaries) != 1 {
		t.Fatalf("summaries = %+v, want exactly the healthy source", summaries)
	}
	if summaries[0].DBName != "ok" {
		t.Errorf("DBName = %q, want ok", summaries[0].DBName)
	}
}

func TestBatchRunnerSortsByName(t *testing.T) {
	open := func() (relational.SchemaExtractor, error) {
		return testExtractor(), nil
	}
	runner := &BatchRunner{Generator: testGenerator(), Workers: 4}

	sources := []Source{
		{Name: "zebra", Open: open},
		{Name: "alpha", Open: open},
		{Name: "mango", Open: open},
	}

	summaries := runner.Run(context.Background(), sources)
	if len(summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(summaries))
	}
	want := []string{"alpha", "mango", "zebra"}
	for i, name := range want {
		if summaries[i].DBName != name {
			t.Errorf("summaries[%d] = %q, want %q", i, summaries[i].DBName, name)
		}
	}
}

func TestBatchRunnerClosesExtractor(t *testing.T) {
	ex := testExtractor()
	runner := &BatchRunner{Generator: testGenerator()}

	runner.Run(context.Background(), []Source{{
		Name: "flights",
		Open: func() (relational.SchemaExtractor, error) { return ex, nil },
	}})

	if !ex.closed {
		t.Error("extractor was not closed")
	}
}

func TestArtifactStoreSavePayload(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifactStore: %v", err)
	}

	payload, err := Run(context.Background(), "flights", testExtractor(), testGenerator(), nil, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := store.SavePayload(payload); err != nil {
		t.Fatalf("SavePayload: %v", err)
	}

	want := []string{
		"rds_schema/flights_schema.json",
		"rds_data/flights_data.json",
		"kgs_schema/flights_kgs.json",
		"kgs_data/flights_kgs_data.json",
		"evaluation/flights_schema_eval.json",
		"evaluation/flights_relationship_eval.json",
	}
	for _, rel := range want {
		path := filepath.Join(store.Root, rel)
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing artifact %s: %v", rel, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", rel)
		}
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	summaries := []eval.DBSummary{
		{DBName: "flights", SchemaCompleteness: 1, RelationshipCompleteness: 0.5},
		{DBName: "pets", SchemaCompleteness: 0.25, RelationshipCompleteness: 0},
	}

	if err := WriteSummaryCSV(path, summaries); err != nil {
		t.Fatalf("WriteSummaryCSV: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "db_name,schema_completeness,relationship_completeness\n" +
		"flights,1.000,0.500\n" +
		"pets,0.250,0.000\n"
	if string(got) != want {
		t.Errorf("csv = %q, want %q", got, want)
	}
}
