// Package sensory implements the four-dimensional salience gate that
// decides, once per tick, whether a SensoryEvent is worth routing into the
// cognition pipeline (spec §4.2).
package sensory

import (
	"strings"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/models"
)

// Gate scores SensoryEvents. It is a pure function over (event,
// working-memory summary, config) — no side effects, deterministic given
// its inputs (spec §4.2) — so Gate itself holds only the immutable
// parameter table and pattern list, never mutable event state.
type Gate struct {
	params   *config.Params
	patterns []*compiledPattern
}

// NewGate builds a Gate from the shared parameter table.
func NewGate(params *config.Params) *Gate {
	return &Gate{params: params, patterns: urgencyPatterns}
}

// Score computes a Salience and PerceptFeature for event, given the recent
// working-memory entries (the "working-memory summary" of spec §4.2) as
// the novelty and task-relevance comparison set.
func (g *Gate) Score(event models.SensoryEvent, recent []models.ContextEntry) (models.Salience, models.PerceptFeature) {
	words := tokenize(event.Content)

	novelty := g.novelty(words, recent)
	urgency, feature := g.urgency(event.Content)
	complexity := complexityOf(event.Content, words)
	relevance := taskRelevance(words, recent)

	score := g.params.WeightNovelty*novelty +
		g.params.WeightUrgency*urgency +
		g.params.WeightComplexity*complexity +
		g.params.WeightTaskRelevance*relevance

	feature.RawComplexity = complexity

	sal := models.Salience{
		Novelty:         novelty,
		Urgency:         urgency,
		Complexity:      complexity,
		TaskRelevance:   relevance,
		Score:           score,
		UrgentBypass:    score >= g.params.UrgentBypassThreshold,
		BelowNoiseFloor: score < g.params.NoiseFloor,
	}
	return sal, feature
}

// novelty is 1 minus the highest word-overlap ratio against any recent
// working-memory entry; an event sharing no vocabulary with recent context
// is maximally novel.
func (g *Gate) novelty(words map[string]struct{}, recent []models.ContextEntry) float64 {
	if len(words) == 0 || len(recent) == 0 {
		return 1
	}
	maxOverlap := 0.0
	for _, entry := range recent {
		overlap := jaccard(words, tokenize(entry.Content))
		if overlap > maxOverlap {
			maxOverlap = overlap
		}
	}
	return 1 - maxOverlap
}

// urgency combines the built-in keyword/pattern table with a terminal
// punctuation boost; the highest-urgency pattern match also sets the
// returned PerceptFeature's tag.
func (g *Gate) urgency(content string) (float64, models.PerceptFeature) {
	var feature models.PerceptFeature
	best := 0.0
	for _, p := range g.patterns {
		if !p.Regex.MatchString(content) {
			continue
		}
		if p.Urgency > best {
			best = p.Urgency
		}
		if p.Tag != "" {
			feature.ThreatTag = p.Tag
		}
	}
	if strings.Count(content, "!") > 0 && best < 0.6 {
		best = 0.6
	}
	feature.IntentTag = feature.ThreatTag
	if best > 0 {
		feature.IntentConfidence = best
	}
	return clamp01(best), feature
}

// complexityOf estimates structural complexity from length, sentence
// count, and presence of code-like structure (spec §4.2, "length/structure").
func complexityOf(content string, words map[string]struct{}) float64 {
	length := float64(len(content))
	sentences := strings.Count(content, ".") + strings.Count(content, "?") + strings.Count(content, "\n") + 1
	vocab := float64(len(words))

	score := length/500 + vocab/80 + float64(sentences)/20
	if strings.Contains(content, "```") {
		score += 0.3
	}
	return clamp01(score)
}

// taskRelevance is the overlap between the event's vocabulary and the
// vocabulary of currently active working-memory topics.
func taskRelevance(words map[string]struct{}, recent []models.ContextEntry) float64 {
	if len(words) == 0 || len(recent) == 0 {
		return 0
	}
	topics := make(map[string]struct{})
	for _, entry := range recent {
		for w := range tokenize(entry.Content) {
			topics[w] = struct{}{}
		}
	}
	return jaccard(words, topics)
}

func tokenize(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]{}")
		if f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
