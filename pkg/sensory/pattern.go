package sensory

import (
	"log/slog"
	"regexp"
)

// compiledPattern holds a pre-compiled regex pattern together with the
// salience contribution it signals when it matches. Mirrors the teacher's
// masking.CompiledPattern table — a small fixed set of named, pre-compiled
// detectors consulted in sequence, rather than one large pattern.
type compiledPattern struct {
	Name    string
	Regex   *regexp.Regexp
	Tag     string  // PerceptFeature.ThreatTag or IntentTag value this signals
	Urgency float64 // contribution toward the Urgency component on match
}

// urgencyPatterns are the built-in detectors for time-pressure and
// destructive-intent language in an utterance (spec §4.2, "urgency
// detection"). Invalid patterns would be a programmer error caught at
// init, not a runtime concern, so compilation failures panic here rather
// than being silently skipped as the teacher does for operator-supplied
// patterns loaded from YAML.
var urgencyPatterns = compileAll([]compiledPattern{
	{Name: "imperative_now", Regex: regexp.MustCompile(`(?i)\b(now|immediately|urgent|asap|right away)\b`), Urgency: 0.9},
	{Name: "question_help", Regex: regexp.MustCompile(`(?i)\b(help|stuck|broken|failing|error)\b`), Urgency: 0.5},
	{Name: "destructive_verb", Regex: regexp.MustCompile(`(?i)\b(delete|drop|rm -rf|destroy|wipe|truncate)\b`), Tag: "destructive", Urgency: 0.7},
	{Name: "credential_mention", Regex: regexp.MustCompile(`(?i)\b(password|api[_ ]?key|secret|token|credential)\b`), Tag: "credential", Urgency: 0.4},
})

func compileAll(patterns []compiledPattern) []*compiledPattern {
	out := make([]*compiledPattern, 0, len(patterns))
	for i := range patterns {
		p := patterns[i]
		if p.Regex == nil {
			slog.Error("sensory: pattern compiled to nil regex, skipping", "pattern", p.Name)
			continue
		}
		out = append(out, &p)
	}
	return out
}
