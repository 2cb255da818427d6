package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iris-runtime/iris/pkg/config"
)

func TestMonitor_Classify(t *testing.T) {
	m := NewMonitor(config.DefaultParams(), "/")

	assert.Equal(t, PressureNormal, m.classify(50, 50))
	assert.Equal(t, PressureHigh, m.classify(75, 50))
	assert.Equal(t, PressureHigh, m.classify(50, 85))
	assert.Equal(t, PressureCritical, m.classify(90, 50))
	assert.Equal(t, PressureCritical, m.classify(50, 95))
}

func TestTokenWindow_TickCap(t *testing.T) {
	params := config.DefaultParams()
	params.TickLLMCallCap = 2
	w := NewTokenWindow(params)
	w.BeginTick()

	assert.NoError(t, w.Admit())
	assert.NoError(t, w.Admit())
	assert.Error(t, w.Admit())

	w.BeginTick()
	assert.NoError(t, w.Admit())
}

func TestTokenWindow_WindowCap(t *testing.T) {
	params := config.DefaultParams()
	params.TickLLMCallCap = 100
	params.TokenWindowCap = 100
	w := NewTokenWindow(params)
	w.BeginTick()

	require := assert.New(t)
	require.NoError(w.Admit())
	w.RecordUsage(100)

	require.Error(w.Admit())
}

func TestAllocator_Admit_RejectsOverBudget(t *testing.T) {
	a := NewAllocator(config.DefaultParams())
	a.mu.Lock()
	a.budget = Budget{ExternalResponse: 1000}
	a.mu.Unlock()

	assert.NoError(t, a.Admit(ClassExternalResponse, 500))
	assert.Error(t, a.Admit(ClassExternalResponse, 1500))
}
