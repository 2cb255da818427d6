package scheduler

import (
	"time"

	"github.com/iris-runtime/iris/pkg/config"
)

// Mode is the scheduler's tick-interval regime (spec §4.1, "Tick modes").
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeIdle   Mode = "idle"
	ModeRest   Mode = "rest"
)

// tickInterval returns the configured sleep duration for mode.
func tickInterval(params *config.Params, mode Mode) time.Duration {
	switch mode {
	case ModeIdle:
		return params.TickIntervalIdle
	case ModeRest:
		return params.TickIntervalRest
	default:
		return params.TickIntervalNormal
	}
}

// nextMode applies spec §4.1's mode transition rules for one completed
// tick:
//
//	Normal → Idle   when no external events and no pending internal work
//	                for one full tick
//	Idle   → Normal on any external input or new internal task
//	Normal/Idle → Rest when energy < RestEnergyFloor and no active dialogue
//	Rest   → Normal when energy ≥ RestEnergyCeiling or external input arrives
func nextMode(current Mode, hadExternalEvents, hadInternalWork bool, energy float64, dialogueActive bool, params *config.Params) Mode {
	restEligible := energy < params.RestEnergyFloor && !dialogueActive

	switch current {
	case ModeRest:
		if hadExternalEvents || energy >= params.RestEnergyCeiling {
			return ModeNormal
		}
		return ModeRest

	case ModeIdle:
		if hadExternalEvents || hadInternalWork {
			return ModeNormal
		}
		if restEligible {
			return ModeRest
		}
		return ModeIdle

	default: // ModeNormal
		if hadExternalEvents || hadInternalWork {
			return ModeNormal
		}
		if restEligible {
			return ModeRest
		}
		return ModeIdle
	}
}
