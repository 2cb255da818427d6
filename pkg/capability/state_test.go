package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_StateTable(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateStaged, StateActiveCandidate, true},
		{StateStaged, StateQuarantined, true},
		{StateStaged, StateConfirmed, false},
		{StateActiveCandidate, StateConfirmed, true},
		{StateActiveCandidate, StateQuarantined, true},
		{StateConfirmed, StateQuarantined, true},
		{StateConfirmed, StateRetired, true},
		{StateConfirmed, StateStaged, false},
		{StateQuarantined, StateStaged, true},
		{StateQuarantined, StateRetired, true},
		{StateQuarantined, StateConfirmed, false},
		{StateRetired, StateStaged, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
