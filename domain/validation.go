package domain

// ContextClass describes the kind of code surrounding a finding, as
// determined by the false-positive validator's path and naming heuristics.
type ContextClass string

const (
	ContextProduction ContextClass = "production"
	ContextTest       ContextClass = "test"
	ContextGenerated  ContextClass = "generated"
	ContextVendored   ContextClass = "vendored"

	// ContextUnverified means the surrounding code could not be classified
	// (e.g. the file was unreadable); the validator degrades to a
	// pattern-check-only result instead of failing the run.
	ContextUnverified ContextClass = "unverified"
)

// ValidationResult wraps a finding with the validator's verdict
type ValidationResult struct {
	Finding *Finding `json:"finding"`

	// Valid is true when confidence clears the acceptance threshold
	Valid bool `json:"valid"`

	// Confidence is the estimated probability, in [0, 1], that the finding
	// is a true positive
	Confidence float64 `json:"confidence"`

	// Context classifies where the finding sits
	Context ContextClass `json:"context"`

	// Reasons lists why confidence was penalized or boosted
	Reasons []string `json:"reasons,omitempty"`

	// DangerousPattern is set when the independent re-check found a
	// genuinely dangerous construct in the snippet
	DangerousPattern bool `json:"dangerous_pattern"`

	// SafeToApply is stricter than Valid: it requires zero detected risk
	// indicators and a non-vendored context
	SafeToApply bool `json:"safe_to_apply"`

	// UnverifiedContext marks a degraded, pattern-check-only validation
	UnverifiedContext bool `json:"unverified_context,omitempty"`
}

// Validator filters likely false positives out of raw analyzer output
type Validator interface {
	// Validate inspects one finding against its surrounding source context
	Validate(finding *Finding, sourceText string) *ValidationResult
}
