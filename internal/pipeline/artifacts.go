package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore writes per-stage JSON artifacts under a root directory:
// the extracted relational schema and data, the generated graph schema,
// the mapped graph, and both evaluation reports.
type ArtifactStore struct {
	Root string
}

// NewArtifactStore creates the artifact directory tree.
func NewArtifactStore(root string) (*ArtifactStore, error) {
	for _, dir := range []string{"rds_schema", "rds_data", "kgs_schema", "kgs_data", "evaluation"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact dir: %w", err)
		}
	}
	return &ArtifactStore{Root: root}, nil
}

// SavePayload writes every stage of one source's run.
func (s *ArtifactStore) SavePayload(p *Payload) error {
	stages := []struct {
		dir, suffix string
		v           any
	}{
		{"rds_schema", "_schema.json", p.Extraction.Schema},
		{"rds_data", "_data.json", p.Extraction.Data},
		{"kgs_schema", "_kgs.json", p.GraphSchema},
		{"kgs_data", "_kgs_data.json", p.Graph},
		{"evaluation", "_schema_eval.json", p.SchemaCompleteness},
		{"evaluation", "_relationship_eval.json", p.RelationshipCompleteness},
	}
	for _, stage := range stages {
		path := filepath.Join(s.Root, stage.dir, p.DBName+stage.suffix)
		if err := writeJSON(path, stage.v); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
