package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"kgbridge/internal/discovery"
	"kgbridge/internal/graph"
	"kgbridge/internal/mcpserver"
	"kgbridge/internal/pipeline"
	"kgbridge/internal/relational"
)

var (
	dbDir       string
	outDir      string
	summaryPath string
	rowLimit    int
	workers     int
	loadGraph   bool
	wipe        bool
	metaGraph   bool
	modelKey    string
	discoverOut string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kgbridge",
		Short: "Convert relational databases into knowledge graphs and evaluate the conversion",
		Long: "kgbridge extracts schema and data from relational databases, discovers a\n" +
			"node/edge schema with Gemini, maps rows into a labeled property graph,\n" +
			"optionally loads it into Neo4j, and scores the conversion with schema and\n" +
			"relationship completeness.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Convert and evaluate every database in a folder",
		RunE:  runBatch,
	}
	runCmd.Flags().StringVar(&dbDir, "db-dir", "db_dataset", "folder containing .sqlite/.duckdb files")
	runCmd.Flags().StringVar(&outDir, "out", "extracted_output", "artifact output directory")
	runCmd.Flags().StringVar(&summaryPath, "summary", "evaluation_summary/evaluation_summary.csv", "evaluation summary CSV path")
	runCmd.Flags().IntVar(&rowLimit, "limit", 0, "max rows per table (0 = all)")
	runCmd.Flags().IntVar(&workers, "workers", 1, "concurrent source databases")
	runCmd.Flags().BoolVar(&loadGraph, "load", false, "load mapped graphs into Neo4j")
	runCmd.Flags().BoolVar(&wipe, "wipe", false, "wipe Neo4j before loading")
	runCmd.Flags().BoolVar(&metaGraph, "metagraph", false, "also build entity-level metagraphs in Neo4j")
	runCmd.Flags().StringVar(&modelKey, "model", envOr("GEMINI_MODEL", "pro"), "Gemini model key (flash, pro, flash-2)")

	discoverCmd := &cobra.Command{
		Use:   "discover <database-file>",
		Short: "Discover entity and relationship configurations for one database",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiscover,
	}
	discoverCmd.Flags().StringVar(&discoverOut, "out", "", "write the discovery document to this file (default stdout)")
	discoverCmd.Flags().StringVar(&modelKey, "model", envOr("GEMINI_MODEL", "pro"), "Gemini model key (flash, pro, flash-2)")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the converter as MCP tools on stdio",
		RunE:  runMCP,
	}
	mcpCmd.Flags().IntVar(&rowLimit, "limit", 0, "max rows per table (0 = all)")
	mcpCmd.Flags().StringVar(&modelKey, "model", envOr("GEMINI_MODEL", "pro"), "Gemini model key (flash, pro, flash-2)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(mcpCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}

	sources, err := collectSources(dbDir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no database files found in %s", dbDir)
	}

	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer geminiClient.Close()

	var graphClient graph.GraphClient
	if loadGraph || metaGraph {
		graphClient, err = newGraphClientFromEnv()
		if err != nil {
			return err
		}
		defer graphClient.Close(ctx)

		if wipe {
			if err := graphClient.Reset(ctx); err != nil {
				return fmt.Errorf("failed to wipe neo4j: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Wiped Neo4j database")
		}
	}

	artifacts, err := pipeline.NewArtifactStore(outDir)
	if err != nil {
		return err
	}

	runner := &pipeline.BatchRunner{
		Generator: discovery.NewAgent(graphClient, geminiClient, modelKey),
		Artifacts: artifacts,
		RowLimit:  rowLimit,
		Workers:   workers,
	}
	if loadGraph {
		runner.Loader = graphClient
	}
	if metaGraph {
		runner.MetaBuilder = graphClient
	}

	summaries := runner.Run(ctx, sources)
	if len(summaries) == 0 {
		return fmt.Errorf("all %d sources failed", len(sources))
	}

	if err := os.MkdirAll(filepath.Dir(summaryPath), 0o755); err != nil {
		return err
	}
	if err := pipeline.WriteSummaryCSV(summaryPath, summaries); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Evaluation summary saved to %s (%d/%d sources)\n",
		summaryPath, len(summaries), len(sources))
	return nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}

	ex, err := openSource(args[0])
	if err != nil {
		return err
	}
	defer ex.Close()

	schema, err := ex.ExtractSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract schema: %w", err)
	}

	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer geminiClient.Close()
	agent := discovery.NewAgent(nil, geminiClient, modelKey)

	entities, err := agent.DiscoverEntities(ctx, schema)
	if err != nil {
		return err
	}
	relationships, err := agent.DiscoverRelationships(ctx, schema, entities)
	if err != nil {
		return err
	}

	doc := struct {
		Entities      []discovery.EntityConfig       `json:"entities"`
		Relationships []discovery.RelationshipConfig `json:"relationships"`
	}{entities, relationships}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if discoverOut == "" {
		fmt.Println(string(data))
		return nil
	}
	if dir := filepath.Dir(discoverOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(discoverOut, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write discovery document: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Discovery document saved to %s (%d entities, %d relationships)\n",
		discoverOut, len(entities), len(relationships))
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	server, err := mcpserver.NewServer(mcpserver.Config{
		ServerName:    "kgbridge",
		ServerVersion: "1.0.0",
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   modelKey,
		Neo4jURI:      os.Getenv("NEO4J_URI"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPassword: os.Getenv("NEO4J_PASSWORD"),
		Neo4jDatabase: envOr("NEO4J_DATABASE", "neo4j"),
		RowLimit:      rowLimit,
	})
	if err != nil {
		return err
	}
	defer server.Close(ctx)

	return server.Start(ctx)
}

// collectSources lists the relational database files in a folder.
// .sqlite/.db files open through the SQLite extractor; .duckdb/.ddb
// through the DuckDB one.
func collectSources(dir string) ([]pipeline.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var sources []pipeline.Source
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".sqlite", ".db":
			sources = append(sources, pipeline.Source{
				Name: name,
				Open: func() (relational.SchemaExtractor, error) {
					return relational.NewSQLiteExtractor(path)
				},
			})
		case ".duckdb", ".ddb":
			sources = append(sources, pipeline.Source{
				Name: name,
				Open: func() (relational.SchemaExtractor, error) {
					return relational.NewDuckDBExtractor(path)
				},
			})
		}
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// openSource opens a single database file through the extractor matching
// its extension.
func openSource(path string) (relational.SchemaExtractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb", ".ddb":
		return relational.NewDuckDBExtractor(path)
	default:
		return relational.NewSQLiteExtractor(path)
	}
}

func newGraphClientFromEnv() (graph.GraphClient, error) {
	uri := os.Getenv("NEO4J_URI")
	password := os.Getenv("NEO4J_PASSWORD")
	if uri == "" || password == "" {
		return nil, fmt.Errorf("NEO4J_URI and NEO4J_PASSWORD must be set when loading graphs")
	}
	return graph.NewNeo4jClient(uri, envOr("NEO4J_USER", "neo4j"), password, envOr("NEO4J_DATABASE", "neo4j"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
