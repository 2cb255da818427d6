package memory

import (
	"context"
	"math"
	"sort"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/errkind"
)

// Recaller performs semantic recall: top-K knowledge rows by cosine
// similarity against a query embedding, above a minimum-similarity floor
// (spec §4.3, "top-3 semantic recall by cosine similarity > 0.6").
type Recaller struct {
	params *config.Params
	repo   *database.Repository
	// candidatePoolSize bounds how many recent knowledge rows are scored;
	// recall ranks among recent candidates rather than the full table, the
	// same recency-bounded scope the working ring uses.
	candidatePoolSize int
}

// NewRecaller builds a Recaller backed by repo.
func NewRecaller(params *config.Params, repo *database.Repository) *Recaller {
	return &Recaller{params: params, repo: repo, candidatePoolSize: 200}
}

// Scored pairs a knowledge row's content with its similarity to the query.
type Scored struct {
	Content    string
	Similarity float64
}

// Recall returns up to config.Params.SemanticRecallTopK knowledge rows
// whose embedding similarity to queryEmbedding exceeds
// config.Params.SemanticRecallMinSimilarity, highest similarity first.
func (r *Recaller) Recall(ctx context.Context, queryEmbedding []float64) ([]Scored, error) {
	rows, err := r.repo.RecentKnowledge(ctx, r.candidatePoolSize)
	if err != nil {
		return nil, errkind.New(errkind.Transient, err)
	}

	scored := make([]Scored, 0, len(rows))
	for _, row := range rows {
		sim := cosineSimilarity(queryEmbedding, row.Embedding)
		if sim <= r.params.SemanticRecallMinSimilarity {
			continue
		}
		scored = append(scored, Scored{Content: row.Content, Similarity: sim})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > r.params.SemanticRecallTopK {
		scored = scored[:r.params.SemanticRecallTopK]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
