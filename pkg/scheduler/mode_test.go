package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iris-runtime/iris/pkg/config"
)

func TestNextMode_NormalToIdle_OnQuietTick(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeNormal, false, false, 0.5, false, params)
	assert.Equal(t, ModeIdle, got)
}

func TestNextMode_IdleToNormal_OnExternalInput(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeIdle, true, false, 0.5, false, params)
	assert.Equal(t, ModeNormal, got)
}

func TestNextMode_IdleToNormal_OnInternalWork(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeIdle, false, true, 0.5, false, params)
	assert.Equal(t, ModeNormal, got)
}

func TestNextMode_ToRest_WhenEnergyBelowFloorAndNoDialogue(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeNormal, false, false, params.RestEnergyFloor-0.01, false, params)
	assert.Equal(t, ModeRest, got)
}

func TestNextMode_NoRest_WhenDialogueActive(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeNormal, false, false, params.RestEnergyFloor-0.01, true, params)
	assert.Equal(t, ModeIdle, got)
}

func TestNextMode_RestToNormal_OnExternalInput(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeRest, true, false, 0.1, false, params)
	assert.Equal(t, ModeNormal, got)
}

func TestNextMode_RestToNormal_WhenEnergyReachesCeiling(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeRest, false, false, params.RestEnergyCeiling, false, params)
	assert.Equal(t, ModeNormal, got)
}

func TestNextMode_RestStaysRest_WhenEnergyStillLow(t *testing.T) {
	params := config.DefaultParams()
	got := nextMode(ModeRest, false, false, 0.3, false, params)
	assert.Equal(t, ModeRest, got)
}

func TestTickInterval_PerMode(t *testing.T) {
	params := config.DefaultParams()
	assert.Equal(t, params.TickIntervalNormal, tickInterval(params, ModeNormal))
	assert.Equal(t, params.TickIntervalIdle, tickInterval(params, ModeIdle))
	assert.Equal(t, params.TickIntervalRest, tickInterval(params, ModeRest))
}
