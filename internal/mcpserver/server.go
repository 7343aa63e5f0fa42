// Package mcpserver exposes the conversion and evaluation pipeline as MCP
// tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/option"

	"kgbridge/internal/discovery"
	"kgbridge/internal/graph"
	"kgbridge/internal/kg"
	"kgbridge/internal/pipeline"
	"kgbridge/internal/relational"
)

// Server wraps the MCP server with relational-to-graph capabilities.
type Server struct {
	mcpServer    *mcp.Server
	agent        *discovery.Agent
	neo4jClient  graph.GraphClient
	geminiClient *genai.Client
	rowLimit     int

	// Last successful conversion, used by ask_graph for Cypher grounding.
	mu          sync.Mutex
	lastPayload *pipeline.Payload
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string
	GeminiAPIKey  string
	GeminiModel   string // Model key: flash, pro, flash-2
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
	RowLimit      int
}

// NewServer creates a new MCP server instance.
func NewServer(cfg Config) (*Server, error) {
	ctx := context.Background()

	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	neo4jClient, err := graph.NewNeo4jClient(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		geminiClient.Close()
		return nil, fmt.Errorf("failed to create neo4j client: %w", err)
	}

	modelKey := cfg.GeminiModel
	if modelKey == "" {
		modelKey = "pro"
	}
	fmt.Fprintf(os.Stderr, "Using Gemini model: %s\n", modelKey)
	agent := discovery.NewAgent(neo4jClient, geminiClient, modelKey)

	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	s := &Server{
		mcpServer:    mcp.NewServer(impl, nil),
		agent:        agent,
		neo4jClient:  neo4jClient,
		geminiClient: geminiClient,
		rowLimit:     cfg.RowLimit,
	}
	s.registerTools()
	return s, nil
}

// ConvertArgs defines the input for convert_database.
type ConvertArgs struct {
	Path string `json:"path" jsonschema:"path to the SQLite or DuckDB database file"`
	Load bool   `json:"load,omitempty" jsonschema:"whether to load the mapped graph into Neo4j"`
}

// ConvertResult defines the output for convert_database.
type ConvertResult struct {
	DBName                   string  `json:"db_name" jsonschema:"database identifier"`
	Nodes                    int     `json:"nodes" jsonschema:"number of mapped nodes"`
	Edges                    int     `json:"edges" jsonschema:"number of mapped edges"`
	SchemaCompleteness       float64 `json:"schema_completeness" jsonschema:"node-creation fidelity ratio"`
	RelationshipCompleteness float64 `json:"relationship_completeness" jsonschema:"edge-creation fidelity ratio"`
}

// EvaluateArgs defines the input for evaluate_conversion.
type EvaluateArgs struct{}

// EvaluateResult wraps the detailed completeness reports of the last
// conversion.
type EvaluateResult struct {
	DBName        string `json:"db_name" jsonschema:"database identifier"`
	Schema        any    `json:"schema_completeness" jsonschema:"per-table schema completeness report"`
	Relationships any    `json:"relationship_completeness" jsonschema:"per-foreign-key relationship completeness report"`
}

// QueryGraphArgs defines the input for query_graph.
type QueryGraphArgs struct {
	Cypher string `json:"cypher" jsonschema:"Cypher query to execute"`
}

// QueryGraphResult wraps graph query results.
type QueryGraphResult struct {
	Data any `json:"data" jsonschema:"query results"`
}

// AskGraphArgs defines the input for ask_graph.
type AskGraphArgs struct {
	Question string `json:"question" jsonschema:"natural-language question about the loaded graph"`
}

// AskGraphResult defines the output for ask_graph.
type AskGraphResult struct {
	Answer string `json:"answer" jsonschema:"AI-generated answer"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "convert_database",
		Description: "Convert a relational database (SQLite or DuckDB file) into a labeled property graph using an AI-discovered node/edge schema, optionally load it into Neo4j, and report completeness scores.",
	}, s.handleConvert)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "evaluate_conversion",
		Description: "Return the detailed schema-completeness and relationship-completeness reports of the most recent conversion.",
	}, s.handleEvaluate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "query_graph",
		Description: "Execute Cypher queries directly on the Neo4j graph database. For advanced users who want to explore the converted graph.",
	}, s.handleQueryGraph)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ask_graph",
		Description: "Ask natural-language questions about the converted graph. The question is translated into Cypher against the discovered schema and answered from the query results.",
	}, s.handleAskGraph)
}

func (s *Server) handleConvert(ctx context.Context, _ *mcp.CallToolRequest, args ConvertArgs) (*mcp.CallToolResult, ConvertResult, error) {
	ex, err := openExtractor(args.Path)
	if err != nil {
		return nil, ConvertResult{}, err
	}
	defer ex.Close()

	var loader pipeline.GraphLoader
	if args.Load {
		loader = s.neo4jClient
	}

	dbName := strings.TrimSuffix(filepath.Base(args.Path), filepath.Ext(args.Path))
	payload, err := pipeline.Run(ctx, dbName, ex, s.agent, loader, s.rowLimit)
	if err != nil {
		return nil, ConvertResult{}, fmt.Errorf("conversion failed: %w", err)
	}

	s.mu.Lock()
	s.lastPayload = payload
	s.mu.Unlock()

	return nil, ConvertResult{
		DBName:                   payload.DBName,
		Nodes:                    len(payload.Graph.Nodes),
		Edges:                    len(payload.Graph.Edges),
		SchemaCompleteness:       payload.Summary.SchemaCompleteness,
		RelationshipCompleteness: payload.Summary.RelationshipCompleteness,
	}, nil
}

func (s *Server) handleEvaluate(_ context.Context, _ *mcp.CallToolRequest, _ EvaluateArgs) (*mcp.CallToolResult, EvaluateResult, error) {
	s.mu.Lock()
	payload := s.lastPayload
	s.mu.Unlock()

	if payload == nil {
		return nil, EvaluateResult{}, fmt.Errorf("no conversion yet; call convert_database first")
	}
	return nil, EvaluateResult{
		DBName:        payload.DBName,
		Schema:        payload.SchemaCompleteness,
		Relationships: payload.RelationshipCompleteness,
	}, nil
}

func (s *Server) handleQueryGraph(ctx context.Context, _ *mcp.CallToolRequest, args QueryGraphArgs) (*mcp.CallToolResult, QueryGraphResult, error) {
	result, err := s.neo4jClient.ExecuteCypher(ctx, args.Cypher)
	if err != nil {
		return nil, QueryGraphResult{}, fmt.Errorf("cypher query failed: %w", err)
	}
	return nil, QueryGraphResult{Data: result}, nil
}

func (s *Server) handleAskGraph(ctx context.Context, _ *mcp.CallToolRequest, args AskGraphArgs) (*mcp.CallToolResult, AskGraphResult, error) {
	s.mu.Lock()
	var schema *kg.GraphSchema
	if s.lastPayload != nil {
		schema = s.lastPayload.GraphSchema
	}
	s.mu.Unlock()

	if schema == nil {
		return nil, AskGraphResult{}, fmt.Errorf("no conversion yet; call convert_database first")
	}

	answer, err := s.agent.Query(ctx, args.Question, schema)
	if err != nil {
		return nil, AskGraphResult{}, fmt.Errorf("graph question failed: %w", err)
	}
	return nil, AskGraphResult{Answer: answer}, nil
}

// Start starts the MCP server using stdio transport.
func (s *Server) Start(ctx context.Context) error {
	fmt.Fprintf(os.Stderr, "Starting kgbridge MCP server on stdio...\n")
	transport := &mcp.StdioTransport{}
	return s.mcpServer.Run(ctx, transport)
}

// Close cleans up resources.
func (s *Server) Close(ctx context.Context) error {
	if s.geminiClient != nil {
		s.geminiClient.Close()
	}
	if s.neo4jClient != nil {
		s.neo4jClient.Close(ctx)
	}
	return nil
}

func openExtractor(path string) (relational.SchemaExtractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb", ".ddb":
		return relational.NewDuckDBExtractor(path)
	default:
		return relational.NewSQLiteExtractor(path)
	}
}
