// Package graph persists mapped knowledge graphs into Neo4j.
package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kgbridge/internal/kg"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphClient defines the interface for graph database operations.
type GraphClient interface {
	Close(ctx context.Context) error
	Reset(ctx context.Context) error
	LoadGraph(ctx context.Context, g *kg.Graph, schema *kg.GraphSchema) error
	BuildMetaGraph(ctx context.Context, schema *kg.GraphSchema) error
	ExecuteCypher(ctx context.Context, query string) ([]map[string]any, error)
}

// Neo4jClient implements GraphClient for Neo4j.
type Neo4jClient struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewNeo4jClient creates a new Neo4j client and verifies connectivity.
func NewNeo4jClient(uri, username, password, dbName string) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	return &Neo4jClient{
		driver: driver,
		dbName: dbName,
	}, nil
}

func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Reset deletes all data in the graph.
func (c *Neo4jClient) Reset(ctx context.Context) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	return err
}

// LoadGraph persists a mapped graph. Nodes merge on their declared (or
// inferred) natural key when every key column is present in the row,
// falling back to the synthetic positional ID otherwise; either way the
// synthetic ID is stored so edges can be matched, and repeated loads are
// idempotent. Edges merge as typed relationships between matched pairs.
func (c *Neo4jClient) LoadGraph(ctx context.Context, g *kg.Graph, schema *kg.GraphSchema) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName})
	defer session.Close(ctx)

	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range g.Nodes {
			if err := mergeNode(ctx, tx, node, schema.KeyColumns(node.Label)); err != nil {
				return nil, err
			}
		}
		for _, edge := range g.Edges {
			if err := mergeEdge(ctx, tx, edge, labels); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func mergeNode(ctx context.Context, tx neo4j.ManagedTransaction, node kg.Node, keys []string) error {
	params := map[string]any{
		"sid":   node.ID,
		"props": map[string]any(node.Properties),
	}

	mergeOn := keys
	for _, k := range keys {
		if v, ok := node.Properties[k]; !ok || v == nil {
			mergeOn = nil
			break
		}
	}

	var query string
	if len(mergeOn) > 0 {
		pairs := make([]string, len(mergeOn))
		for i, col := range mergeOn {
			pairs[i] = fmt.Sprintf("`%s`: $k%d", ident(col), i)
			params[fmt.Sprintf("k%d", i)] = node.Properties[col]
		}
		query = fmt.Sprintf(
			"MERGE (n:`%s` {%s}) SET n += $props SET n._sid = $sid",
			ident(node.Label), strings.Join(pairs, ", "))
	} else {
		query = fmt.Sprintf(
			"MERGE (n:`%s` {_sid: $sid}) SET n += $props",
			ident(node.Label))
	}

	if _, err := tx.Run(ctx, query, params); err != nil {
		return fmt.Errorf("failed to merge node %s: %w", node.ID, err)
	}
	return nil
}

func mergeEdge(ctx context.Context, tx neo4j.ManagedTransaction, edge kg.Edge, labels map[string]string) error {
	query := fmt.Sprintf(
		"MATCH (a:`%s` {_sid: $source}) MATCH (b:`%s` {_sid: $target}) MERGE (a)-[:`%s`]->(b)",
		ident(labels[edge.Source]), ident(labels[edge.Target]), ident(edge.Relationship))

	_, err := tx.Run(ctx, query, map[string]any{
		"source": edge.Source,
		"target": edge.Target,
	})
	if err != nil {
		return fmt.Errorf("failed to merge edge %s->%s: %w", edge.Source, edge.Target, err)
	}
	return nil
}

// BuildMetaGraph loads the schema itself as an entity-level graph: one
// Entity node per label and one typed relationship per edge declaration,
// carrying the join columns as relationship properties.
func (c *Neo4jClient) BuildMetaGraph(ctx context.Context, schema *kg.GraphSchema) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range schema.Nodes {
			query := "MERGE (n:Entity {name: $name}) SET n.key = $key, n.properties = $properties"
			params := map[string]any{
				"name":       node.Label,
				"key":        node.Key,
				"properties": node.Properties,
			}
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, err
			}
		}

		for _, edge := range schema.Edges {
			relType := edge.Relationship
			if relType == "" {
				relType = kg.DefaultRelationship
			}
			query := fmt.Sprintf(`
				MATCH (a:Entity {name: $source}), (b:Entity {name: $target})
				MERGE (a)-[:`+"`%s`"+` {source_column: $scol, target_column: $tcol}]->(b)`,
				ident(relType))
			params := map[string]any{
				"source": edge.Source,
				"target": edge.Target,
				"scol":   edge.SourceColumn,
				"tcol":   edge.TargetColumn,
			}
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// ident strips backticks so generated labels and relationship types can
// be safely backtick-quoted inside Cypher.
func ident(s string) string {
	return strings.ReplaceAll(s, "`", "")
}
