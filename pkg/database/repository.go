package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EpisodeRecord is a row of the episode table.
type EpisodeRecord struct {
	ID             string
	TopicID        string
	Content        string
	Embedding      []float64
	Salience       float64
	IsConsolidated bool
	CreatedAt      time.Time
}

// KnowledgeRecord is a row of the knowledge table.
type KnowledgeRecord struct {
	ID               string
	Summary          string
	Content          string
	Embedding        []float64
	SourceEpisodeIDs []string
	CreatedAt        time.Time
}

// Repository exposes hand-written SQL access to Iris's persisted tables. It
// replaces a generated ORM layer: every method is a plain pgx-backed query.
// Embeddings are stored as JSON arrays rather than a native vector column,
// since no pgvector extension is assumed to be present.
type Repository struct {
	db *Client
}

// NewRepository builds a repository bound to the given client.
func NewRepository(db *Client) *Repository {
	return &Repository{db: db}
}

// InsertEpisode persists an episode row and returns its generated id.
func (r *Repository) InsertEpisode(ctx context.Context, topicID, content string, embedding []float64, salience float64) (string, error) {
	emb, err := json.Marshal(embedding)
	if err != nil {
		return "", fmt.Errorf("marshal embedding: %w", err)
	}

	var id string
	err = r.db.DB().QueryRowContext(ctx,
		`INSERT INTO episode (topic_id, content, embedding, salience) VALUES ($1, $2, $3, $4) RETURNING id`,
		topicID, content, emb, salience,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert episode: %w", err)
	}
	return id, nil
}

// UnconsolidatedEpisodes returns up to limit episodes not yet folded into
// semantic knowledge, oldest first, for the consolidation worker.
func (r *Repository) UnconsolidatedEpisodes(ctx context.Context, limit int) ([]EpisodeRecord, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT id, topic_id, content, embedding, salience, is_consolidated, created_at
		 FROM episode WHERE is_consolidated = false ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unconsolidated episodes: %w", err)
	}
	defer rows.Close()

	var out []EpisodeRecord
	for rows.Next() {
		var e EpisodeRecord
		var emb []byte
		if err := rows.Scan(&e.ID, &e.TopicID, &e.Content, &emb, &e.Salience, &e.IsConsolidated, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if err := json.Unmarshal(emb, &e.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkEpisodesConsolidated flips is_consolidated for the given episode ids.
func (r *Repository) MarkEpisodesConsolidated(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.DB().ExecContext(ctx,
		`UPDATE episode SET is_consolidated = true WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark episodes consolidated: %w", err)
	}
	return nil
}

// InsertKnowledge persists a consolidated knowledge row.
func (r *Repository) InsertKnowledge(ctx context.Context, summary, content string, embedding []float64, sourceEpisodeIDs []string) (string, error) {
	emb, err := json.Marshal(embedding)
	if err != nil {
		return "", fmt.Errorf("marshal embedding: %w", err)
	}
	sourceIDs, err := json.Marshal(sourceEpisodeIDs)
	if err != nil {
		return "", fmt.Errorf("marshal source episode ids: %w", err)
	}

	var id string
	err = r.db.DB().QueryRowContext(ctx,
		`INSERT INTO knowledge (summary, content, embedding, source_episode_ids) VALUES ($1, $2, $3, $4) RETURNING id`,
		summary, content, emb, sourceIDs,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert knowledge: %w", err)
	}
	return id, nil
}

// RecentKnowledge returns the most recent knowledge rows, for semantic recall
// candidates (final cosine-similarity ranking happens in pkg/memory).
func (r *Repository) RecentKnowledge(ctx context.Context, limit int) ([]KnowledgeRecord, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT id, summary, content, embedding, source_episode_ids, created_at
		 FROM knowledge ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent knowledge: %w", err)
	}
	defer rows.Close()

	var out []KnowledgeRecord
	for rows.Next() {
		var k KnowledgeRecord
		var emb, sourceIDs []byte
		if err := rows.Scan(&k.ID, &k.Summary, &k.Content, &emb, &sourceIDs, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan knowledge: %w", err)
		}
		if err := json.Unmarshal(emb, &k.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		if err := json.Unmarshal(sourceIDs, &k.SourceEpisodeIDs); err != nil {
			return nil, fmt.Errorf("unmarshal source episode ids: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// InsertNarrativeEvent persists a narrative event row.
func (r *Repository) InsertNarrativeEvent(ctx context.Context, kind, description string, significance float64, metadata map[string]any) (string, error) {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshal narrative metadata: %w", err)
	}

	var id string
	err = r.db.DB().QueryRowContext(ctx,
		`INSERT INTO narrative_event (kind, description, significance, metadata) VALUES ($1, $2, $3, $4) RETURNING id`,
		kind, description, significance, meta,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert narrative event: %w", err)
	}
	return id, nil
}

// InsertCodegenHistory records a code-generation outcome for the self-critic
// phase (spec §4.1 phase 7, "on code-generation outcomes, codegen_history").
// capabilityID may be empty when the generated artifact was never staged.
func (r *Repository) InsertCodegenHistory(ctx context.Context, capabilityID, name, outcome, detail string, cratesUsed []string) (string, error) {
	crates, err := json.Marshal(cratesUsed)
	if err != nil {
		return "", fmt.Errorf("marshal crates used: %w", err)
	}

	var capabilityIDArg any
	if capabilityID != "" {
		capabilityIDArg = capabilityID
	}

	var id string
	err = r.db.DB().QueryRowContext(ctx,
		`INSERT INTO codegen_history (capability_id, name, outcome, detail, crates_used)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		capabilityIDArg, name, outcome, detail, crates,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert codegen history: %w", err)
	}
	return id, nil
}

// GetConfigParam reads a single config_param value, or ok=false if absent.
func (r *Repository) GetConfigParam(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value json.RawMessage
	err := r.db.DB().QueryRowContext(ctx, `SELECT value FROM config_param WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get config param %q: %w", key, err)
	}
	return value, true, nil
}

// UpsertConfigParam inserts the value for key, or overwrites the stored
// value (and updated_at) when key already exists.
func (r *Repository) UpsertConfigParam(ctx context.Context, key string, value json.RawMessage) error {
	_, err := r.db.DB().ExecContext(ctx,
		`INSERT INTO config_param (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("upsert config param %q: %w", key, err)
	}
	return nil
}

// CapabilityRecord is a row of the capability table.
type CapabilityRecord struct {
	ID               string
	Name             string
	BinaryPath       string
	Permissions      []string
	ResourceLimits   json.RawMessage
	Keywords         []string
	State            string
	LKGVersion       *int
	QuarantineCount  int
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InsertCapability creates a capability row in the staged state (spec §4.4,
// the lifecycle's entry state).
func (r *Repository) InsertCapability(ctx context.Context, name, binaryPath string, permissions, keywords []string, resourceLimits json.RawMessage) (string, error) {
	perms, err := json.Marshal(permissions)
	if err != nil {
		return "", fmt.Errorf("marshal permissions: %w", err)
	}
	kws, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("marshal keywords: %w", err)
	}

	var id string
	err = r.db.DB().QueryRowContext(ctx,
		`INSERT INTO capability (name, binary_path, permissions, resource_limits, keywords)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		name, binaryPath, perms, resourceLimits, kws,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert capability: %w", err)
	}
	return id, nil
}

// GetCapabilityByName reads a capability row, or ok=false if absent.
func (r *Repository) GetCapabilityByName(ctx context.Context, name string) (CapabilityRecord, bool, error) {
	var c CapabilityRecord
	var perms, kws []byte
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT id, name, binary_path, permissions, resource_limits, keywords, state, lkg_version, quarantine_count, version, created_at, updated_at
		 FROM capability WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.BinaryPath, &perms, &c.ResourceLimits, &kws, &c.State, &c.LKGVersion, &c.QuarantineCount, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return CapabilityRecord{}, false, nil
		}
		return CapabilityRecord{}, false, fmt.Errorf("get capability %q: %w", name, err)
	}
	if err := json.Unmarshal(perms, &c.Permissions); err != nil {
		return CapabilityRecord{}, false, fmt.Errorf("unmarshal permissions: %w", err)
	}
	if err := json.Unmarshal(kws, &c.Keywords); err != nil {
		return CapabilityRecord{}, false, fmt.Errorf("unmarshal keywords: %w", err)
	}
	return c, true, nil
}

// ListCapabilities returns every capability row, for boot-time registry
// hydration.
func (r *Repository) ListCapabilities(ctx context.Context) ([]CapabilityRecord, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT id, name, binary_path, permissions, resource_limits, keywords, state, lkg_version, quarantine_count, version, created_at, updated_at
		 FROM capability ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list capabilities: %w", err)
	}
	defer rows.Close()

	var out []CapabilityRecord
	for rows.Next() {
		var c CapabilityRecord
		var perms, kws []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.BinaryPath, &perms, &c.ResourceLimits, &kws, &c.State, &c.LKGVersion, &c.QuarantineCount, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan capability: %w", err)
		}
		if err := json.Unmarshal(perms, &c.Permissions); err != nil {
			return nil, fmt.Errorf("unmarshal permissions: %w", err)
		}
		if err := json.Unmarshal(kws, &c.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshal keywords: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCapabilityState transitions a capability's state column (spec §4.4,
// the lifecycle's state machine edges), bumping updated_at.
func (r *Repository) UpdateCapabilityState(ctx context.Context, id, state string) error {
	_, err := r.db.DB().ExecContext(ctx,
		`UPDATE capability SET state = $2, updated_at = now() WHERE id = $1`, id, state)
	if err != nil {
		return fmt.Errorf("update capability state: %w", err)
	}
	return nil
}

// SetCapabilityLKG records the last-known-good version after a healthy
// promotion (spec §4.4).
func (r *Repository) SetCapabilityLKG(ctx context.Context, id string, version int) error {
	_, err := r.db.DB().ExecContext(ctx,
		`UPDATE capability SET lkg_version = $2, updated_at = now() WHERE id = $1`, id, version)
	if err != nil {
		return fmt.Errorf("set capability lkg: %w", err)
	}
	return nil
}

// IncrementCapabilityQuarantine bumps quarantine_count and returns the new
// value, so the caller can compare it against
// config.Params.QuarantineRetireThreshold without a second round trip.
func (r *Repository) IncrementCapabilityQuarantine(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.DB().QueryRowContext(ctx,
		`UPDATE capability SET quarantine_count = quarantine_count + 1, state = 'quarantined', updated_at = now()
		 WHERE id = $1 RETURNING quarantine_count`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment capability quarantine: %w", err)
	}
	return count, nil
}

// EnsureCapabilityScore creates a zeroed capability_score row for a newly
// staged capability; a no-op if one already exists.
func (r *Repository) EnsureCapabilityScore(ctx context.Context, capabilityID string) error {
	_, err := r.db.DB().ExecContext(ctx,
		`INSERT INTO capability_score (capability_id) VALUES ($1) ON CONFLICT (capability_id) DO NOTHING`,
		capabilityID)
	if err != nil {
		return fmt.Errorf("ensure capability score: %w", err)
	}
	return nil
}

// RecordCapabilityUsage increments usage_count and, depending on success,
// success_count or failure_count, for the self-critic phase's feedback into
// capability scoring (spec §4.1 phase 7).
func (r *Repository) RecordCapabilityUsage(ctx context.Context, capabilityID string, success bool) error {
	column := "failure_count"
	if success {
		column = "success_count"
	}
	_, err := r.db.DB().ExecContext(ctx,
		fmt.Sprintf(`UPDATE capability_score SET usage_count = usage_count + 1, %s = %s + 1,
		 last_used_at = now(), updated_at = now() WHERE capability_id = $1`, column, column),
		capabilityID)
	if err != nil {
		return fmt.Errorf("record capability usage: %w", err)
	}
	return nil
}

// UserPreferenceRecord is a row of the user_preference table.
type UserPreferenceRecord struct {
	Key        string
	Value      json.RawMessage
	Confidence float64
	UpdatedAt  time.Time
}

// UpsertUserPreference writes or updates an inferred user preference (spec
// §3, self-model facts). Confidence is overwritten, not averaged: the
// caller combines it with any prior value before calling.
func (r *Repository) UpsertUserPreference(ctx context.Context, key string, value json.RawMessage, confidence float64) error {
	_, err := r.db.DB().ExecContext(ctx,
		`INSERT INTO user_preference (key, value, confidence) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, confidence = EXCLUDED.confidence, updated_at = now()`,
		key, value, confidence)
	if err != nil {
		return fmt.Errorf("upsert user preference %q: %w", key, err)
	}
	return nil
}

// GetUserPreference reads a single user preference, or ok=false if absent.
func (r *Repository) GetUserPreference(ctx context.Context, key string) (UserPreferenceRecord, bool, error) {
	var p UserPreferenceRecord
	p.Key = key
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT value, confidence, updated_at FROM user_preference WHERE key = $1`, key,
	).Scan(&p.Value, &p.Confidence, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return UserPreferenceRecord{}, false, nil
		}
		return UserPreferenceRecord{}, false, fmt.Errorf("get user preference %q: %w", key, err)
	}
	return p, true, nil
}

// InsertBootHealthRecord persists a boot guardian phase outcome.
func (r *Repository) InsertBootHealthRecord(ctx context.Context, phase, outcome, detail string, consecutiveFails int, safeMode bool) error {
	_, err := r.db.DB().ExecContext(ctx,
		`INSERT INTO boot_health_record (phase, outcome, detail, consecutive_fails, safe_mode)
		 VALUES ($1, $2, $3, $4, $5)`,
		phase, outcome, detail, consecutiveFails, safeMode)
	if err != nil {
		return fmt.Errorf("insert boot health record: %w", err)
	}
	return nil
}
