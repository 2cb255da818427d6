package config

import "fmt"

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateParams(); err != nil {
		return fmt.Errorf("params validation failed: %w", err)
	}
	if err := v.validateCapabilities(); err != nil {
		return fmt.Errorf("capability validation failed: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateParams() error {
	p := v.cfg.Params
	if p == nil {
		return fmt.Errorf("params configuration is nil")
	}

	if p.TickIntervalNormal <= 0 || p.TickIntervalIdle <= 0 || p.TickIntervalRest <= 0 {
		return fmt.Errorf("tick intervals must be positive")
	}
	if p.NoiseFloor < 0 || p.NoiseFloor > 1 {
		return fmt.Errorf("noise_floor must be in [0,1], got %v", p.NoiseFloor)
	}
	if p.UrgentBypassThreshold < 0 || p.UrgentBypassThreshold > 1 {
		return fmt.Errorf("urgent_bypass_threshold must be in [0,1], got %v", p.UrgentBypassThreshold)
	}
	weightSum := p.WeightNovelty + p.WeightUrgency + p.WeightComplexity + p.WeightTaskRelevance
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("salience weights must sum to 1.0, got %v", weightSum)
	}
	if p.WorkingRingCapacity < 1 {
		return fmt.Errorf("working_ring_capacity must be at least 1, got %d", p.WorkingRingCapacity)
	}
	if p.WorkingRingMaxTopics < 1 {
		return fmt.Errorf("working_ring_max_topics must be at least 1, got %d", p.WorkingRingMaxTopics)
	}
	if p.TickLLMCallCap < 1 {
		return fmt.Errorf("tick_llm_call_cap must be at least 1, got %d", p.TickLLMCallCap)
	}
	if p.ToolCallCapPerTick < 1 {
		return fmt.Errorf("tool_call_cap_per_tick must be at least 1, got %d", p.ToolCallCapPerTick)
	}
	if p.BudgetExternalResponseFloor <= 0 {
		return fmt.Errorf("budget_external_response_floor_bytes must be positive")
	}
	splitSum := p.BudgetSplitExternal + p.BudgetSplitInternalGrowth + p.BudgetSplitMaintenance
	if splitSum < 0.999 || splitSum > 1.001 {
		return fmt.Errorf("budget split must sum to 1.0, got %v", splitSum)
	}
	if p.ProviderFailureThreshold < 1 {
		return fmt.Errorf("provider_failure_threshold must be at least 1, got %d", p.ProviderFailureThreshold)
	}
	if p.QuarantineRetireThreshold < 1 {
		return fmt.Errorf("quarantine_retire_threshold must be at least 1, got %d", p.QuarantineRetireThreshold)
	}
	if p.SafeModeConsecutiveFailures < 1 {
		return fmt.Errorf("safe_mode_consecutive_failures must be at least 1, got %d", p.SafeModeConsecutiveFailures)
	}
	return nil
}

func (v *Validator) validateCapabilities() error {
	for name, manifest := range v.cfg.CapabilityRegistry.GetAll() {
		if !manifest.Transport.Type.IsValid() {
			return NewValidationError("capability", name, "transport.type",
				fmt.Errorf("invalid transport type: %s", manifest.Transport.Type))
		}

		switch manifest.Transport.Type {
		case TransportTypeStdio:
			if manifest.Transport.Command == "" {
				return NewValidationError("capability", name, "transport.command",
					fmt.Errorf("command required for stdio transport"))
			}
		case TransportTypeHTTP, TransportTypeSSE:
			if manifest.Transport.URL == "" {
				return NewValidationError("capability", name, "transport.url",
					fmt.Errorf("url required for %s transport", manifest.Transport.Type))
			}
		}

		for _, perm := range manifest.Permissions {
			if !perm.IsValid() {
				return NewValidationError("capability", name, "permissions",
					fmt.Errorf("invalid permission: %s", perm))
			}
		}
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, provider := range v.cfg.LLMProviderRegistry.GetAll() {
		if !provider.Type.IsValid() {
			return NewValidationError("llm_provider", name, "type",
				fmt.Errorf("invalid provider type: %s", provider.Type))
		}
		if provider.Model == "" {
			return NewValidationError("llm_provider", name, "model", fmt.Errorf("model required"))
		}
	}
	return nil
}
