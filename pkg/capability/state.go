// Package capability implements the capability lifecycle state machine
// (spec §4.4): staged → active_candidate → confirmed, with quarantine and
// retirement edges, last-known-good (LKG) tracking, and the process
// supervisor that spawns and health-checks each capability's child process
// over pkg/mcp.
package capability

// State is one node of the lifecycle state table (spec §4.4).
type State string

const (
	StateStaged          State = "staged"
	StateActiveCandidate State = "active_candidate"
	StateConfirmed       State = "confirmed"
	StateQuarantined     State = "quarantined"
	StateRetired         State = "retired"
)

// validTransitions encodes the state table's "From → To" edges; the
// triggering event/action is enforced by the caller (Manager), not derivable
// from state alone.
var validTransitions = map[State]map[State]bool{
	StateStaged:          {StateActiveCandidate: true, StateQuarantined: true},
	StateActiveCandidate: {StateConfirmed: true, StateQuarantined: true},
	StateConfirmed:       {StateQuarantined: true, StateRetired: true},
	StateQuarantined:     {StateStaged: true, StateRetired: true},
	StateRetired:         {},
}

// CanTransition reports whether to is a legal next state from from (spec
// §4.4's state table).
func CanTransition(from, to State) bool {
	edges, ok := validTransitions[from]
	if !ok {
		return false
	}
	return edges[to]
}
