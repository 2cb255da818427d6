package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
)

// CreateSearchIndexes creates full-text search GIN indexes not expressed in
// the plain migration files, mirroring the teacher's pattern of handling
// Postgres-specific indexing outside the generated schema layer.
func CreateSearchIndexes(ctx context.Context, db *stdsql.DB) error {
	statements := []struct {
		name string
		sql  string
	}{
		{
			name: "episode_content_gin",
			sql: `CREATE INDEX IF NOT EXISTS idx_episode_content_gin
				ON episode USING gin(to_tsvector('english', content))`,
		},
		{
			name: "knowledge_content_gin",
			sql: `CREATE INDEX IF NOT EXISTS idx_knowledge_content_gin
				ON knowledge USING gin(to_tsvector('english', content))`,
		},
		{
			name: "narrative_event_description_gin",
			sql: `CREATE INDEX IF NOT EXISTS idx_narrative_event_description_gin
				ON narrative_event USING gin(to_tsvector('english', description))`,
		},
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s index: %w", stmt.name, err)
		}
	}

	return nil
}
