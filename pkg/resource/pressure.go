// Package resource implements the pressure classifier, budget reallocator,
// and admission gate over system RAM/storage (spec §4.7).
package resource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/iris-runtime/iris/pkg/config"
)

// Pressure is one of the three system pressure levels (spec §4.7).
type Pressure string

const (
	PressureNormal   Pressure = "normal"
	PressureHigh     Pressure = "high"
	PressureCritical Pressure = "critical"
)

// Snapshot is one sample of system pressure.
type Snapshot struct {
	RAMPercent     float64
	StoragePercent float64
	Level          Pressure
	SampledAt      time.Time
}

// Monitor samples RAM/storage via gopsutil and classifies pressure.
type Monitor struct {
	params      *config.Params
	storagePath string

	mu       sync.RWMutex
	current  Snapshot
	watchers []chan Pressure

	logger *slog.Logger
}

// NewMonitor builds a Monitor that samples storage usage at storagePath
// (typically the data directory housing the database/capability binaries).
func NewMonitor(params *config.Params, storagePath string) *Monitor {
	return &Monitor{params: params, storagePath: storagePath, logger: slog.Default()}
}

// Sample reads current RAM/storage usage and classifies pressure (spec
// §4.7: "Normal (RAM<70 ∧ storage<80), High, Critical (RAM≥85 ∨
// storage≥90)").
func (m *Monitor) Sample(ctx context.Context) (Snapshot, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	du, err := disk.UsageWithContext(ctx, m.storagePath)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		RAMPercent:     vm.UsedPercent,
		StoragePercent: du.UsedPercent,
		SampledAt:      time.Now(),
	}
	snap.Level = m.classify(snap.RAMPercent, snap.StoragePercent)

	m.mu.Lock()
	prev := m.current
	m.current = snap
	watchers := append([]chan Pressure(nil), m.watchers...)
	m.mu.Unlock()

	if prev.Level != snap.Level && snap.Level == PressureCritical {
		for _, w := range watchers {
			select {
			case w <- snap.Level:
			default:
			}
		}
	}
	return snap, nil
}

func (m *Monitor) classify(ramPct, storagePct float64) Pressure {
	p := m.params
	if ramPct >= p.PressureRAMCriticalPercent || storagePct >= p.PressureStorageCritical {
		return PressureCritical
	}
	if ramPct >= p.PressureRAMHighPercent || storagePct >= p.PressureStorageHighPercent {
		return PressureHigh
	}
	return PressureNormal
}

// Current returns the most recent sample.
func (m *Monitor) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// WatchCritical registers a channel that receives PressureCritical whenever
// a sample first transitions into it, for the affect actor's "critical
// pressure event" update (spec §4.8). Delivery is best-effort: a full
// channel drops the notification rather than blocking Sample.
func (m *Monitor) WatchCritical() <-chan Pressure {
	ch := make(chan Pressure, 1)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()
	return ch
}

// Run samples on a fixed interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sample(ctx); err != nil {
				m.logger.Error("resource: sample failed", "error", err)
			}
		}
	}
}
