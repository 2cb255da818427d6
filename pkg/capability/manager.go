package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/database"
	"github.com/iris-runtime/iris/pkg/errkind"
	"github.com/iris-runtime/iris/pkg/mcp"
)

// Record is the in-memory mirror of a database.CapabilityRecord plus the
// timestamp its current state was entered, used to evaluate the 10-minute
// continuous-healthy promotion window (spec §4.4).
type Record struct {
	ID              string
	Name            string
	State           State
	LKGVersion      *int
	QuarantineCount int
	Version         int
	EnteredStateAt  time.Time
	restarts        int
}

// Manager owns the capability lifecycle state machine: it consults
// pkg/mcp's HealthMonitor for liveness facts and drives quarantine/LKG/
// retirement transitions, persisting every transition through
// database.Repository (spec §4.4).
type Manager struct {
	params   *config.Params
	registry *config.Registry
	repo     *database.Repository
	health   *mcp.HealthMonitor
	factory  *mcp.ClientFactory

	mu      sync.RWMutex
	records map[string]*Record // keyed by capability name

	logger *slog.Logger
}

// NewManager wires a Manager around an already-constructed health monitor
// and client factory (both own the pkg/mcp transport); the manager itself
// never talks to a capability's transport directly except through them.
func NewManager(params *config.Params, registry *config.Registry, repo *database.Repository, factory *mcp.ClientFactory, health *mcp.HealthMonitor) *Manager {
	return &Manager{
		params:   params,
		registry: registry,
		repo:     repo,
		health:   health,
		factory:  factory,
		records:  make(map[string]*Record),
		logger:   slog.Default(),
	}
}

// Hydrate loads every persisted capability row into memory, called once at
// boot before the health monitor starts (spec §4.9, CapabilityLoad phase).
func (m *Manager) Hydrate(ctx context.Context) error {
	rows, err := m.repo.ListCapabilities(ctx)
	if err != nil {
		return errkind.New(errkind.Transient, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.records[row.Name] = &Record{
			ID:              row.ID,
			Name:            row.Name,
			State:           State(row.State),
			LKGVersion:      row.LKGVersion,
			QuarantineCount: row.QuarantineCount,
			Version:         row.Version,
			EnteredStateAt:  row.UpdatedAt,
		}
	}
	return nil
}

// Stage records a newly landed codegen artifact's manifest and enters the
// staged state (spec §4.4, "codegen artifact landed → staged").
func (m *Manager) Stage(ctx context.Context, name, binaryPath string, manifest *config.ManifestConfig) (*Record, error) {
	perms := make([]string, len(manifest.Permissions))
	for i, p := range manifest.Permissions {
		perms[i] = string(p)
	}
	limits, err := json.Marshal(manifest.ResourceLimits)
	if err != nil {
		return nil, errkind.New(errkind.Validation, err)
	}

	id, err := m.repo.InsertCapability(ctx, name, binaryPath, perms, manifest.Keywords, limits)
	if err != nil {
		return nil, errkind.New(errkind.Transient, err)
	}
	if err := m.repo.EnsureCapabilityScore(ctx, id); err != nil {
		return nil, errkind.New(errkind.Transient, err)
	}

	m.registry.Put(name, manifest)

	rec := &Record{ID: id, Name: name, State: StateStaged, Version: 1, EnteredStateAt: time.Now()}
	m.mu.Lock()
	m.records[name] = rec
	m.mu.Unlock()
	return rec, nil
}

// Get returns the in-memory record for name, if known.
func (m *Manager) Get(name string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	return rec, ok
}

// All returns a snapshot of every tracked record.
func (m *Manager) All() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

// ConfirmSelfTest applies the "staged → self-test pass → active_candidate"
// / "staged → self-test fail → quarantined" edges.
func (m *Manager) ConfirmSelfTest(ctx context.Context, name string, passed bool) error {
	if passed {
		return m.transition(ctx, name, StateActiveCandidate)
	}
	return m.quarantine(ctx, name)
}

// EvaluatePromotion checks every active_candidate against the health
// monitor's facts and promotes any that have been continuously healthy for
// config.Params.CapabilityHealthyDuration (spec §4.4, "10 min continuous
// healthy → confirmed, update LKG"). cmd/iris polls it on a fixed 30s
// interval (runPromotionLoop).
func (m *Manager) EvaluatePromotion(ctx context.Context) {
	statuses := m.health.GetStatuses()

	m.mu.RLock()
	candidates := make([]*Record, 0)
	for _, r := range m.records {
		if r.State == StateActiveCandidate {
			candidates = append(candidates, r)
		}
	}
	m.mu.RUnlock()

	for _, r := range candidates {
		status, ok := statuses[r.Name]
		if !ok || !status.Healthy {
			continue
		}
		if time.Since(r.EnteredStateAt) < m.params.CapabilityHealthyDuration {
			continue
		}
		if err := m.confirm(ctx, r.Name); err != nil {
			m.logger.Error("capability: promotion failed", "name", r.Name, "error", err)
		}
	}
}

// confirm performs the "active_candidate → confirmed" edge, atomically
// updating the LKG pointer (spec §4.4: "Only one confirmed record per
// capability name; promotion to confirmed atomically updates LKG").
func (m *Manager) confirm(ctx context.Context, name string) error {
	m.mu.Lock()
	rec, ok := m.records[name]
	if !ok {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: unknown name %q", name)
	}
	if !CanTransition(rec.State, StateConfirmed) {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: illegal transition %s -> %s", rec.State, StateConfirmed)
	}
	version := rec.Version
	m.mu.Unlock()

	if err := m.repo.SetCapabilityLKG(ctx, rec.ID, version); err != nil {
		return errkind.New(errkind.Transient, err)
	}
	if err := m.repo.UpdateCapabilityState(ctx, rec.ID, string(StateConfirmed)); err != nil {
		return errkind.New(errkind.Transient, err)
	}

	m.mu.Lock()
	rec.State = StateConfirmed
	rec.LKGVersion = &version
	rec.EnteredStateAt = time.Now()
	m.mu.Unlock()
	m.logger.Info("capability: confirmed", "name", name, "lkg_version", version)
	return nil
}

// ReportRegression applies the "confirmed → regression failure →
// quarantined" and "active_candidate → crash + restart fails →
// quarantined" edges. Only the state changes: LKGVersion and Version are
// left as they are, and no rollback to the LKG version is performed.
func (m *Manager) ReportRegression(ctx context.Context, name string) error {
	return m.quarantine(ctx, name)
}

// quarantine performs the "→ quarantined" edge from either staged,
// active_candidate, or confirmed, incrementing quarantine_count and
// retiring the capability once the count reaches
// config.Params.QuarantineRetireThreshold (spec §4.4, "quarantine_count ≥ 3
// → retired (needs user confirm)").
func (m *Manager) quarantine(ctx context.Context, name string) error {
	m.mu.Lock()
	rec, ok := m.records[name]
	if !ok {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: unknown name %q", name)
	}
	if !CanTransition(rec.State, StateQuarantined) {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: illegal transition %s -> %s", rec.State, StateQuarantined)
	}
	m.mu.Unlock()

	count, err := m.repo.IncrementCapabilityQuarantine(ctx, rec.ID)
	if err != nil {
		return errkind.New(errkind.Transient, err)
	}

	m.mu.Lock()
	rec.State = StateQuarantined
	rec.QuarantineCount = count
	rec.EnteredStateAt = time.Now()
	m.mu.Unlock()
	m.logger.Warn("capability: quarantined", "name", name, "quarantine_count", count)

	if count >= m.params.QuarantineRetireThreshold {
		return m.retire(ctx, name, "quarantine_count reached retirement threshold, needs user confirm")
	}
	return nil
}

// Repair applies the "quarantined → repaired new version → staged"
// edge, re-entering the pipeline at a bumped version.
func (m *Manager) Repair(ctx context.Context, name, binaryPath string) error {
	m.mu.Lock()
	rec, ok := m.records[name]
	if !ok {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: unknown name %q", name)
	}
	if !CanTransition(rec.State, StateStaged) {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: illegal transition %s -> %s", rec.State, StateStaged)
	}
	m.mu.Unlock()

	if err := m.repo.UpdateCapabilityState(ctx, rec.ID, string(StateStaged)); err != nil {
		return errkind.New(errkind.Transient, err)
	}

	m.mu.Lock()
	rec.State = StateStaged
	rec.Version++
	rec.EnteredStateAt = time.Now()
	m.mu.Unlock()
	_ = binaryPath // recorded by a future manifest update; repair itself only resets state
	return nil
}

// Retire applies the "confirmed → explicit user retire → retired" edge.
func (m *Manager) Retire(ctx context.Context, name string) error {
	m.mu.RLock()
	rec, ok := m.records[name]
	m.mu.RUnlock()
	if !ok {
		return errkind.Newf(errkind.Validation, "capability: unknown name %q", name)
	}
	if !CanTransition(rec.State, StateRetired) {
		return errkind.Newf(errkind.Validation, "capability: illegal transition %s -> %s", rec.State, StateRetired)
	}
	return m.retire(ctx, name, "explicit user retire")
}

func (m *Manager) retire(ctx context.Context, name, reason string) error {
	m.mu.Lock()
	rec := m.records[name]
	m.mu.Unlock()

	if err := m.repo.UpdateCapabilityState(ctx, rec.ID, string(StateRetired)); err != nil {
		return errkind.New(errkind.Transient, err)
	}

	m.mu.Lock()
	rec.State = StateRetired
	rec.EnteredStateAt = time.Now()
	m.mu.Unlock()
	m.logger.Info("capability: retired", "name", name, "reason", reason)
	return nil
}

// transition applies a simple, unconditional edge (used for the self-test
// pass edge, which carries no side effect beyond the state change itself).
func (m *Manager) transition(ctx context.Context, name string, to State) error {
	m.mu.Lock()
	rec, ok := m.records[name]
	if !ok {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: unknown name %q", name)
	}
	if !CanTransition(rec.State, to) {
		m.mu.Unlock()
		return errkind.Newf(errkind.Validation, "capability: illegal transition %s -> %s", rec.State, to)
	}
	m.mu.Unlock()

	if err := m.repo.UpdateCapabilityState(ctx, rec.ID, string(to)); err != nil {
		return errkind.New(errkind.Transient, err)
	}

	m.mu.Lock()
	rec.State = to
	rec.EnteredStateAt = time.Now()
	m.mu.Unlock()
	return nil
}

// CheckSideEffects enforces the IPC contract's permission rule (spec §4.4:
// "Side effects declared in the response must be a subset of the
// permissions in the manifest; violations quarantine the capability").
func (m *Manager) CheckSideEffects(ctx context.Context, name string, declaredEffects []config.Permission) error {
	manifest, err := m.registry.Get(name)
	if err != nil {
		return errkind.New(errkind.Validation, err)
	}

	allowed := make(map[config.Permission]bool, len(manifest.Permissions))
	for _, p := range manifest.Permissions {
		allowed[p] = true
	}
	for _, effect := range declaredEffects {
		if !allowed[effect] {
			if qErr := m.quarantine(ctx, name); qErr != nil {
				return errkind.New(errkind.Capability, fmt.Errorf("permission violation %q and quarantine failed: %w", effect, qErr))
			}
			return errkind.Newf(errkind.Capability, "capability %q declared undeclared permission %q, quarantined", name, effect)
		}
	}
	return nil
}
