package capability

import (
	"context"
	"log/slog"
)

// HandleUnhealthy reacts to the health monitor reporting a capability as
// unhealthy: it attempts config.Params.CapabilityRestartAttempts restarts
// (by recreating the capability's client session through the factory) and
// quarantines on exhaustion (spec §4.4, "Process supervisor": "on
// unexpected exit, the supervisor attempts one restart; repeated failure
// triggers quarantine").
//
// The caller passes a capability the health monitor currently reports
// unhealthy; quarantined and retired capabilities are ignored. Nothing in
// this repository calls it on a schedule: neither the scheduler nor
// cmd/iris invokes it.
func (m *Manager) HandleUnhealthy(ctx context.Context, name string) {
	rec, ok := m.Get(name)
	if !ok || rec.State == StateQuarantined || rec.State == StateRetired {
		return
	}

	if rec.restartAttempts() >= m.params.CapabilityRestartAttempts {
		if err := m.quarantine(ctx, name); err != nil {
			m.logger.Error("capability: quarantine after exhausted restarts failed", "name", name, "error", err)
		}
		return
	}

	serverIDs := []string{name}
	client, err := m.factory.CreateClient(ctx, serverIDs)
	if err != nil {
		m.recordRestartAttempt(name)
		slog.Default().Warn("capability: restart attempt failed", "name", name, "error", err)
		return
	}
	_ = client.Close() // the health monitor owns the long-lived session; this call only verifies the child is spawnable again
	m.resetRestartAttempts(name)
}

// restartAttempts reports how many consecutive failed restart attempts a
// record has made. The counter is reset by a successful restart attempt
// and starts at zero for a Record created by Stage or Hydrate; state
// transitions do not reset it.
func (r *Record) restartAttempts() int { return r.restarts }

func (m *Manager) recordRestartAttempt(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[name]; ok {
		rec.restarts++
	}
}

func (m *Manager) resetRestartAttempts(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[name]; ok {
		rec.restarts = 0
	}
}
