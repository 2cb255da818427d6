package llm

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iris-runtime/iris/pkg/config"
)

func TestClassify_PrefixRouting(t *testing.T) {
	cases := map[string]config.LLMProviderType{
		"claude-sonnet-4-5":   config.LLMProviderTypeAnthropic,
		"gpt-4o":              config.LLMProviderTypeOpenAI,
		"o3-mini":             config.LLMProviderTypeOpenAI,
		"gemini-2.5-pro":      config.LLMProviderTypeGoogle,
		"deepseek-chat":       config.LLMProviderTypeDeepSeek,
		"llama-3-70b":         config.LLMProviderTypeUnknown,
	}
	for model, want := range cases {
		assert.Equal(t, want, classify(model), "model %s", model)
	}
}

type fakeProvider struct {
	chunks []Chunk
	err    error
	calls  int
}

func (f *fakeProvider) Generate(_ context.Context, _ GenerateRequest) (<-chan Chunk, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func newTestRouter(t *testing.T, provider Provider, providerType config.LLMProviderType) (*Router, *entry) {
	t.Helper()
	params := config.DefaultParams()
	r := &Router{
		params:    params,
		providers: make(map[config.LLMProviderType]*entry),
		logger:    slog.Default(),
	}
	e := &entry{provider: provider, cfg: &config.LLMProviderConfig{Type: providerType, Model: "claude-test"}}
	r.providers[providerType] = e
	return r, e
}

func TestRouter_Generate_UnavailableAfterThreshold(t *testing.T) {
	fp := &fakeProvider{err: assertErr}
	r, e := newTestRouter(t, fp, config.LLMProviderTypeAnthropic)

	for i := 0; i < r.params.ProviderFailureThreshold; i++ {
		_, err := r.Generate(context.Background(), GenerateRequest{Model: "claude-test"})
		require.Error(t, err)
	}

	e.mu.Lock()
	unavailable := e.unavailable
	e.mu.Unlock()
	assert.True(t, unavailable)

	_, err := r.Generate(context.Background(), GenerateRequest{Model: "claude-test"})
	assert.Error(t, err)
	assert.Equal(t, r.params.ProviderFailureThreshold, fp.calls, "unavailable provider should not be called again")
}

func TestRouter_Generate_SuccessResetsFailures(t *testing.T) {
	fp := &fakeProvider{chunks: []Chunk{{Type: ChunkTypeText, Text: "ok"}}}
	r, e := newTestRouter(t, fp, config.LLMProviderTypeAnthropic)

	ch, err := r.Generate(context.Background(), GenerateRequest{Model: "claude-test"})
	require.NoError(t, err)
	for range ch {
	}

	e.mu.Lock()
	failures := e.consecutiveFailures
	e.mu.Unlock()
	assert.Equal(t, 0, failures)
}

func TestRouter_Generate_NoProviderForModel(t *testing.T) {
	r, _ := newTestRouter(t, &fakeProvider{}, config.LLMProviderTypeAnthropic)

	_, err := r.Generate(context.Background(), GenerateRequest{Model: "gpt-4o"})
	assert.Error(t, err)
}

var assertErr = &testError{"provider unreachable"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
