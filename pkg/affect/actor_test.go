package affect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iris-runtime/iris/pkg/config"
)

func TestActor_OnLLMCall_DecreasesEnergy(t *testing.T) {
	a := NewActor(config.DefaultParams())
	before := a.Current().Energy

	a.OnLLMCall()

	assert.Less(t, a.Current().Energy, before)
}

func TestActor_ClampsToUnitRange(t *testing.T) {
	params := config.DefaultParams()
	a := NewActor(params)
	for i := 0; i < 100; i++ {
		a.OnCriticalPressure()
	}
	assert.LessOrEqual(t, a.Current().Arousal, 1.0)

	for i := 0; i < 100; i++ {
		a.OnError()
	}
	assert.GreaterOrEqual(t, a.Current().Valence, 0.0)
}

func TestActor_Watch_LatestValueOnly(t *testing.T) {
	a := NewActor(config.DefaultParams())
	ch := a.Watch()

	// drain the initial publish
	<-ch

	a.OnLLMCall()
	a.OnLLMCall()
	a.OnLLMCall()

	latest := <-ch
	assert.Equal(t, a.Current(), latest)

	select {
	case <-ch:
		t.Fatal("expected no backlog, watch channel should hold only the latest value")
	default:
	}
}

func TestActor_DecayTick(t *testing.T) {
	a := NewActor(config.DefaultParams())
	a.OnCriticalPressure()
	before := a.Current().Arousal

	a.DecayTick()

	assert.Less(t, a.Current().Arousal, before)
}
