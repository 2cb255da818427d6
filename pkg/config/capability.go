package config

import (
	"fmt"
	"sync"
)

// ManifestConfig is the declared shape of a capability, as recorded when a
// codegen artifact lands (spec §3, Capability manifest / §4.4). The
// capability lifecycle state machine (pkg/capability) registers it on Stage
// and reads its permissions in CheckSideEffects; it never mutates it.
type ManifestConfig struct {
	// Transport reaches the capability's child process.
	Transport TransportConfig `yaml:"transport" validate:"required"`

	// BinaryPath is the staged artifact path, independent of Transport.Command
	// (which may point at a wrapper script).
	BinaryPath string `yaml:"binary_path,omitempty"`

	// Permissions is the subset of declared capability permissions; a
	// response whose self-reported side effects exceed this set quarantines
	// the capability (spec §4.4).
	Permissions []Permission `yaml:"permissions,omitempty"`

	// Keywords aid the sensory gate and tool-routing gate in surfacing this
	// capability for relevant utterances.
	Keywords []string `yaml:"keywords,omitempty"`

	// ResourceLimits bounds the child process; enforced by the OS process
	// spawning primitive (external collaborator, spec §1).
	ResourceLimits ResourceLimits `yaml:"resource_limits,omitempty"`

	// Instructions are appended to the tool's description for the LLM.
	Instructions string `yaml:"instructions,omitempty"`
}

// ResourceLimits bounds a spawned capability child process.
type ResourceLimits struct {
	MaxMemoryBytes int64 `yaml:"max_memory_bytes,omitempty"`
	MaxCPUPercent  int   `yaml:"max_cpu_percent,omitempty"`
}

// Registry stores capability manifest configurations in memory with
// thread-safe access, the same shape as the LLM provider registry.
type Registry struct {
	manifests map[string]*ManifestConfig
	mu        sync.RWMutex
}

// NewRegistry creates a new capability manifest registry.
func NewRegistry(manifests map[string]*ManifestConfig) *Registry {
	copied := make(map[string]*ManifestConfig, len(manifests))
	for k, v := range manifests {
		copied[k] = v
	}
	return &Registry{manifests: copied}
}

// Get retrieves a manifest configuration by capability name (thread-safe).
func (r *Registry) Get(name string) (*ManifestConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifest, exists := r.manifests[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityNotFound, name)
	}
	return manifest, nil
}

// GetAll returns all manifest configurations (thread-safe, returns copy).
func (r *Registry) GetAll() map[string]*ManifestConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*ManifestConfig, len(r.manifests))
	for k, v := range r.manifests {
		result[k] = v
	}
	return result
}

// ServerIDs returns the names of all registered capabilities (thread-safe).
// Used by the capability IPC health monitor to enumerate what to probe.
func (r *Registry) ServerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.manifests))
	for k := range r.manifests {
		ids = append(ids, k)
	}
	return ids
}

// Has checks if a capability manifest exists in the registry (thread-safe).
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.manifests[name]
	return exists
}

// Put registers or replaces a manifest, used when a codegen artifact lands
// at runtime (the staged→... transition's entry action).
func (r *Registry) Put(name string, manifest *ManifestConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests[name] = manifest
}
