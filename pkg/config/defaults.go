package config

import "time"

// Params is the full keyed parameter table (spec §3, "Iris config"): tick
// intervals, thresholds, and caps. It is loaded once at boot, shared
// read-only thereafter, and every field has a default. The values come from
// DefaultParams overlaid with iris.yaml's params block; the persisted
// config_param table is neither read nor written by the loader. There is no
// runtime reload.
type Params struct {
	// Tick scheduler (spec §4.1).
	TickIntervalNormal time.Duration `yaml:"tick_interval_normal"`
	TickIntervalIdle   time.Duration `yaml:"tick_interval_idle"`
	TickIntervalRest   time.Duration `yaml:"tick_interval_rest"`
	RestEnergyFloor    float64       `yaml:"rest_energy_floor"`
	RestEnergyCeiling  float64       `yaml:"rest_energy_ceiling"`
	ExternalQueueCap   int           `yaml:"external_queue_cap"`
	CodegenQueueCap    int           `yaml:"codegen_queue_cap"`
	ShutdownBudget     time.Duration `yaml:"shutdown_budget"`

	// Sensory gate (spec §4.2, §3 Salience score).
	NoiseFloor            float64 `yaml:"noise_floor"`
	UrgentBypassThreshold float64 `yaml:"urgent_bypass_threshold"`
	WeightNovelty         float64 `yaml:"weight_novelty"`
	WeightUrgency         float64 `yaml:"weight_urgency"`
	WeightComplexity      float64 `yaml:"weight_complexity"`
	WeightTaskRelevance   float64 `yaml:"weight_task_relevance"`

	// Cognition pipeline (spec §4.3).
	ContextRecentEntries        int     `yaml:"context_recent_entries"`
	SemanticRecallTopK          int     `yaml:"semantic_recall_top_k"`
	SemanticRecallMinSimilarity float64 `yaml:"semantic_recall_min_similarity"`
	ToolConfidenceThreshold     float64 `yaml:"tool_confidence_threshold"`
	ToolCallCapPerTick          int     `yaml:"tool_call_cap_per_tick"`

	// Capability lifecycle (spec §4.4).
	CapabilityHealthyDuration time.Duration `yaml:"capability_healthy_duration"`
	QuarantineRetireThreshold int           `yaml:"quarantine_retire_threshold"`
	CapabilityRestartAttempts int           `yaml:"capability_restart_attempts"`

	// LLM router (spec §4.5, §7 transient failure accounting).
	ProviderFailureThreshold int           `yaml:"provider_failure_threshold"`
	ProviderProbeInterval    time.Duration `yaml:"provider_probe_interval"`
	TickLLMCallCap           int           `yaml:"tick_llm_call_cap"`
	TokenWindow              time.Duration `yaml:"token_window"`
	TokenWindowCap           int           `yaml:"token_window_cap"`

	// Memory (spec §4.6).
	WorkingRingCapacity     int           `yaml:"working_ring_capacity"`
	WorkingRingMaxTopics    int           `yaml:"working_ring_max_topics"`
	WorkingRingTTL          time.Duration `yaml:"working_ring_ttl"`
	ConsolidationInterval   time.Duration `yaml:"consolidation_interval"`
	ConsolidationMaxRetries int           `yaml:"consolidation_max_retries"`
	ReplaySalienceFloor     float64       `yaml:"replay_salience_floor"`
	NarrativeSignificanceFloor float64    `yaml:"narrative_significance_floor"`

	// Resource space (spec §4.7).
	PressureRAMHighPercent      float64       `yaml:"pressure_ram_high_percent"`
	PressureRAMCriticalPercent  float64       `yaml:"pressure_ram_critical_percent"`
	PressureStorageHighPercent  float64       `yaml:"pressure_storage_high_percent"`
	PressureStorageCritical     float64       `yaml:"pressure_storage_critical_percent"`
	BudgetReallocInterval       time.Duration `yaml:"budget_realloc_interval"`
	BudgetExternalResponseFloor int64         `yaml:"budget_external_response_floor_bytes"`
	BudgetSplitExternal         float64       `yaml:"budget_split_external_response"`
	BudgetSplitInternalGrowth   float64       `yaml:"budget_split_internal_growth"`
	BudgetSplitMaintenance      float64       `yaml:"budget_split_maintenance"`
	TickExternalResponseCap     int64         `yaml:"tick_external_response_cap_bytes"`

	// Affect (spec §4.8).
	AffectEnergyPerLLMCall    float64 `yaml:"affect_energy_per_llm_call"`
	AffectEnergyPerIdleTick   float64 `yaml:"affect_energy_per_idle_tick"`
	AffectValencePerConfirm   float64 `yaml:"affect_valence_per_confirm"`
	AffectValencePerError     float64 `yaml:"affect_valence_per_error"`
	AffectArousalPerCritical  float64 `yaml:"affect_arousal_per_critical"`
	AffectArousalDecayPerTick float64 `yaml:"affect_arousal_decay_per_tick"`

	// Boot guardian (spec §4.9).
	SafeModeConsecutiveFailures int           `yaml:"safe_mode_consecutive_failures"`
	SafeModeExitHealthyTicks    int           `yaml:"safe_mode_exit_healthy_ticks"`
	SafeModeCooldown            time.Duration `yaml:"safe_mode_cooldown"`
}

// DefaultParams returns the documented default for every parameter. The
// loader uses it as the base that iris.yaml overrides.
func DefaultParams() *Params {
	return &Params{
		TickIntervalNormal: 100 * time.Millisecond,
		TickIntervalIdle:   500 * time.Millisecond,
		TickIntervalRest:   2000 * time.Millisecond,
		RestEnergyFloor:    0.2,
		RestEnergyCeiling:  0.8,
		ExternalQueueCap:   256,
		CodegenQueueCap:    5,
		ShutdownBudget:     15 * time.Second,

		NoiseFloor:            0.20,
		UrgentBypassThreshold: 0.82,
		WeightNovelty:         0.35,
		WeightUrgency:         0.25,
		WeightComplexity:      0.25,
		WeightTaskRelevance:   0.15,

		ContextRecentEntries:        10,
		SemanticRecallTopK:          3,
		SemanticRecallMinSimilarity: 0.6,
		ToolConfidenceThreshold:     0.72,
		ToolCallCapPerTick:          4,

		CapabilityHealthyDuration: 10 * time.Minute,
		QuarantineRetireThreshold: 3,
		CapabilityRestartAttempts: 1,

		ProviderFailureThreshold: 3,
		ProviderProbeInterval:    60 * time.Second,
		TickLLMCallCap:           4,
		TokenWindow:              60 * time.Second,
		TokenWindowCap:           10000,

		WorkingRingCapacity:     32,
		WorkingRingMaxTopics:    8,
		WorkingRingTTL:          30 * time.Minute,
		ConsolidationInterval:   30 * time.Minute,
		ConsolidationMaxRetries: 3,
		ReplaySalienceFloor:     0.45,
		NarrativeSignificanceFloor: 0.7,

		PressureRAMHighPercent:      70,
		PressureRAMCriticalPercent:  85,
		PressureStorageHighPercent:  80,
		PressureStorageCritical:     90,
		BudgetReallocInterval:       60 * time.Second,
		BudgetExternalResponseFloor: 64 * 1024 * 1024,
		BudgetSplitExternal:         0.60,
		BudgetSplitInternalGrowth:   0.20,
		BudgetSplitMaintenance:      0.20,
		TickExternalResponseCap:     64 * 1024 * 1024,

		AffectEnergyPerLLMCall:    0.03,
		AffectEnergyPerIdleTick:   0.02,
		AffectValencePerConfirm:   0.10,
		AffectValencePerError:     0.15,
		AffectArousalPerCritical:  0.30,
		AffectArousalDecayPerTick: 0.95,

		SafeModeConsecutiveFailures: 3,
		SafeModeExitHealthyTicks:    5,
		SafeModeCooldown:            5 * time.Minute,
	}
}
