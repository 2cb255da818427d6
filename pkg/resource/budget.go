package resource

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/iris-runtime/iris/pkg/config"
	"github.com/iris-runtime/iris/pkg/errkind"
)

// Class names one of the three budget classes (spec §3, Resource budget).
type Class string

const (
	ClassExternalResponse Class = "external_response"
	ClassInternalGrowth   Class = "internal_growth"
	ClassMaintenance      Class = "maintenance"
)

// Budget is the current byte allocation per class, recomputed every 60 s
// (spec §4.7).
type Budget struct {
	ExternalResponse int64
	InternalGrowth   int64
	Maintenance      int64
	ComputedAt       time.Time
}

// Allocator recomputes the 60/20/20 budget split on a timer and serves
// admission checks against it (spec §4.7).
type Allocator struct {
	params *config.Params

	mu     sync.RWMutex
	budget Budget
}

// NewAllocator builds an Allocator with a zeroed budget until the first
// Recompute runs.
func NewAllocator(params *config.Params) *Allocator {
	return &Allocator{params: params}
}

// Recompute samples total available memory and splits it 60/20/20 across
// classes, enforcing the 64 MB floor on external_response (spec §4.7).
func (a *Allocator) Recompute(ctx context.Context) (Budget, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Budget{}, errkind.New(errkind.Transient, err)
	}

	available := int64(vm.Available)
	external := int64(float64(available) * a.params.BudgetSplitExternal)
	if external < a.params.BudgetExternalResponseFloor {
		external = a.params.BudgetExternalResponseFloor
	}
	internal := int64(float64(available) * a.params.BudgetSplitInternalGrowth)
	maintenance := int64(float64(available) * a.params.BudgetSplitMaintenance)

	b := Budget{
		ExternalResponse: external,
		InternalGrowth:   internal,
		Maintenance:      maintenance,
		ComputedAt:       time.Now(),
	}

	a.mu.Lock()
	a.budget = b
	a.mu.Unlock()
	return b, nil
}

// Current returns the most recently computed budget.
func (a *Allocator) Current() Budget {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.budget
}

// Admit applies spec §4.7's admission rule: reject a task declaring an
// estimated memory cost if the estimate exceeds the remaining budget for
// its class.
func (a *Allocator) Admit(class Class, estimatedBytes int64) error {
	a.mu.RLock()
	b := a.budget
	a.mu.RUnlock()

	var remaining int64
	switch class {
	case ClassExternalResponse:
		remaining = b.ExternalResponse
	case ClassInternalGrowth:
		remaining = b.InternalGrowth
	case ClassMaintenance:
		remaining = b.Maintenance
	default:
		return errkind.Newf(errkind.Validation, "resource: unknown budget class %q", class)
	}

	if estimatedBytes > remaining {
		return errkind.Newf(errkind.Resource, "resource: estimate %d exceeds %s budget %d", estimatedBytes, class, remaining)
	}
	return nil
}

// Run recomputes the budget on a fixed interval until ctx is done.
func (a *Allocator) Run(ctx context.Context) {
	if _, err := a.Recompute(ctx); err != nil {
		// first sample failure is non-fatal; the next tick retries
		_ = err
	}
	ticker := time.NewTicker(a.params.BudgetReallocInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = a.Recompute(ctx)
		}
	}
}
