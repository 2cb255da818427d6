package models

// Salience is the sensory gate's scored verdict on a SensoryEvent (spec §3,
// Salience score; §4.2). The four component scalars are retained alongside
// the weighted total so the cognition context assembler and DESIGN.md's
// testable properties can inspect which dimension drove a decision.
type Salience struct {
	Novelty        float64
	Urgency        float64
	Complexity     float64
	TaskRelevance  float64
	Score          float64 // 0.35*Novelty + 0.25*Urgency + 0.25*Complexity + 0.15*TaskRelevance
	UrgentBypass   bool    // true when Score >= config.Params.UrgentBypassThreshold
	BelowNoiseFloor bool   // true when Score < config.Params.NoiseFloor; event is dropped
}

// PerceptFeature holds the raw signals the sensory gate extracted before
// weighting them into a Salience (spec §4.2). Kept separate from Salience
// so a capability's self-reported side effects can be checked against
// ThreatTag without re-deriving it from the weighted score.
type PerceptFeature struct {
	ThreatTag       string // e.g. "" | "destructive" | "credential"
	RawComplexity   float64
	IntentTag       string
	IntentConfidence float64
}
