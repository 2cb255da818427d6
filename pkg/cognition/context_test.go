package cognition

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/memory"
	"github.com/iris-runtime/iris/pkg/models"
)

func TestAssembler_Assemble_SkipsRecallWithoutEmbedder(t *testing.T) {
	params := config.DefaultParams()
	ring := memory.NewRing(params)
	ring.Put(models.ContextEntry{TopicID: "t1", Content: "earlier note", Salience: 0.5})

	a := NewAssembler(params, ring, nil, nil)

	assembled := a.Assemble(context.Background(), models.SensoryEvent{Content: "hello"}, "summary")

	assert.Empty(t, assembled.Recalled)
	require.Len(t, assembled.Recent, 1)
	assert.Equal(t, "earlier note", assembled.Recent[0].Content)
}

func TestContext_Render_MostRecentLast(t *testing.T) {
	now := time.Now()
	c := Context{
		SelfSummary: "feeling curious",
		Recalled:    []memory.Scored{{Content: "fact A", Similarity: 0.8}},
		Recent: []models.ContextEntry{
			{Content: "newest", LastAccess: now},
			{Content: "oldest", LastAccess: now.Add(-time.Hour)},
		},
	}

	rendered := c.Render()

	oldestIdx := indexOf(rendered, "oldest")
	newestIdx := indexOf(rendered, "newest")
	factIdx := indexOf(rendered, "fact A")

	require.NotEqual(t, -1, oldestIdx)
	require.NotEqual(t, -1, newestIdx)
	require.NotEqual(t, -1, factIdx)
	assert.Less(t, factIdx, oldestIdx, "recalled knowledge should be labeled distinctly, before working memory")
	assert.Less(t, oldestIdx, newestIdx, "most recent working-memory entry must render last")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
