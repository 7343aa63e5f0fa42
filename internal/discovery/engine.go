// Package discovery uses Gemini to propose a knowledge-graph schema from a
// relational schema and to answer natural-language questions over the
// loaded graph. Model output is untrusted input: everything is parsed
// defensively and validated before use.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kgbridge/internal/graph"
	"kgbridge/internal/kg"
	"kgbridge/internal/relational"

	"github.com/google/generative-ai-go/genai"
)

// ModelConfig defines configuration for a Gemini model.
type ModelConfig struct {
	Name        string
	Temperature float32
	TopP        float32
	TopK        int32
}

// AvailableModels defines the available Gemini models and their configurations.
var AvailableModels = map[string]ModelConfig{
	"flash": {
		Name:        "gemini-flash-latest",
		Temperature: 0.2,
		TopP:        0.95,
		TopK:        40,
	},
	"pro": {
		Name:        "gemini-pro-latest",
		Temperature: 0.2,
		TopP:        0.95,
		TopK:        40,
	},
	"flash-2": {
		Name:        "gemini-2.0-flash",
		Temperature: 0.2,
		TopP:        0.95,
		TopK:        40,
	},
}

// EntityConfig is one discovered entity/property assignment.
type EntityConfig struct {
	Entity        string `json:"entity"`
	Property      string `json:"property"`
	IsKeyProperty bool   `json:"is_key_property"`
	SourceTable   string `json:"source_table"`
	SourceColumn  string `json:"source_column"`
}

// RelationshipConfig is one discovered entity-to-entity relationship.
type RelationshipConfig struct {
	SourceEntity string `json:"Source_Entity"`
	Relationship string `json:"Relationship"`
	TargetEntity string `json:"Target_Entity"`
	SourceTable  string `json:"Source_Table"`
	TargetTable  string `json:"Target_Table"`
	SourceColumn string `json:"Source_Column"`
	TargetColumn string `json:"Target_Column"`
}

// Agent drives schema discovery and GraphRAG answering.
type Agent struct {
	graphClient  graph.GraphClient
	geminiClient *genai.Client
	config       ModelConfig
}

// NewAgent constructs an agent. graphClient may be nil when only schema
// discovery is needed.
func NewAgent(graphClient graph.GraphClient, gemini *genai.Client, modelKey string) *Agent {
	config, ok := AvailableModels[modelKey]
	if !ok {
		config = AvailableModels["pro"]
	}
	return &Agent{
		graphClient:  graphClient,
		geminiClient: gemini,
		config:       config,
	}
}

func (a *Agent) model() *genai.GenerativeModel {
	model := a.geminiClient.GenerativeModel(a.config.Name)
	model.SetTemperature(a.config.Temperature)
	model.SetTopP(a.config.TopP)
	model.SetTopK(a.config.TopK)
	return model
}

// GenerateGraphSchema asks the model to propose a node/edge schema for the
// relational schema and validates the response structurally.
func (a *Agent) GenerateGraphSchema(ctx context.Context, schema *relational.Schema) (*kg.GraphSchema, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("%s\n\nDatabase schema:\n%s", graphSchemaPrompt, schemaJSON)
	text, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate graph schema: %w", err)
	}

	parsed, err := kg.ParseGraphSchema([]byte(cleanFences(text)))
	if err != nil {
		return nil, fmt.Errorf("model returned unusable graph schema: %w", err)
	}
	return parsed, nil
}

// DiscoverEntities asks the model to extract entity/property assignments
// from the relational schema.
func (a *Agent) DiscoverEntities(ctx context.Context, schema *relational.Schema) ([]EntityConfig, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("%s\n\nDatabase schema provided:\n%s", entityDiscoveryPrompt, schemaJSON)
	text, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to discover entities: %w", err)
	}
	return parseEntityConfigs(text)
}

// DiscoverRelationships asks the model to derive relationships between the
// previously discovered entities.
func (a *Agent) DiscoverRelationships(ctx context.Context, schema *relational.Schema, entities []EntityConfig) ([]RelationshipConfig, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	entityJSON, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("%s\n\nDatabase schema:\n%s\n\nEntity configuration:\n%s",
		relationshipDiscoveryPrompt, schemaJSON, entityJSON)
	text, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to discover relationships: %w", err)
	}
	return parseRelationshipConfigs(text)
}

// parseEntityConfigs decodes a model entity-discovery response, tolerating
// markdown fences around the JSON document.
func parseEntityConfigs(text string) ([]EntityConfig, error) {
	var wrapper struct {
		Entities []EntityConfig `json:"entities"`
	}
	if err := json.Unmarshal([]byte(cleanFences(text)), &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse entity discovery response: %w", err)
	}
	return wrapper.Entities, nil
}

// parseRelationshipConfigs decodes a model relationship-discovery response.
func parseRelationshipConfigs(text string) ([]RelationshipConfig, error) {
	var wrapper struct {
		Relationships []RelationshipConfig `json:"relationships"`
	}
	if err := json.Unmarshal([]byte(cleanFences(text)), &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse relationship discovery response: %w", err)
	}
	return wrapper.Relationships, nil
}

// Query answers a natural-language question over the loaded graph:
// generate Cypher, run it, and synthesize an answer from the results.
func (a *Agent) Query(ctx context.Context, question string, schema *kg.GraphSchema) (string, error) {
	if a.graphClient == nil {
		return "", fmt.Errorf("no graph client configured")
	}

	cypher, err := a.GenerateCypher(ctx, question, schema)
	if err != nil {
		return "", fmt.Errorf("failed to generate cypher: %w", err)
	}

	graphData, err := a.graphClient.ExecuteCypher(ctx, cypher)
	if err != nil {
		return "", fmt.Errorf("failed to execute graph query: %w", err)
	}

	answer, err := a.synthesizeAnswer(ctx, question, graphData)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}
	return answer, nil
}

// GenerateCypher converts a natural-language question into a Cypher query
// against the labels and relationships of the given graph schema.
func (a *Agent) GenerateCypher(ctx context.Context, question string, schema *kg.GraphSchema) (string, error) {
	var desc strings.Builder
	for _, n := range schema.Nodes {
		fmt.Fprintf(&desc, "- Node (:%s) with properties %s\n", n.Label, strings.Join(n.Properties, ", "))
	}
	for _, e := range schema.Edges {
		relType := e.Relationship
		if relType == "" {
			relType = kg.DefaultRelationship
		}
		fmt.Fprintf(&desc, "- (:%s)-[:%s]->(:%s)\n", e.Source, relType, e.Target)
	}

	prompt := fmt.Sprintf(`You are a Neo4j Cypher query expert. Convert the following question into a
Cypher query for this graph:

%s
Question: %s

Return ONLY the Cypher query, no explanation. Limit results to 10.`, desc.String(), question)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return cleanFences(text), nil
}

func (a *Agent) synthesizeAnswer(ctx context.Context, question string, graphData []map[string]any) (string, error) {
	graphJSON, err := json.MarshalIndent(graphData, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Answer the following question based on the graph database results.

Question: %s

Graph data (from Neo4j):
%s

Provide a clear, concise answer. If the graph data is empty or insufficient,
say so clearly.`, question, graphJSON)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "Unable to generate a response from the available data.", nil
	}
	return text, nil
}

func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.model().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// cleanFences strips markdown code fences from model output.
func cleanFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```cypher")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
