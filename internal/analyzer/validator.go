package analyzer

import (
	"regexp"
	"strings"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
)

// Weights of the three validation signals. They sum to 1 so the combined
// confidence stays in [0, 1] before clamping.
const (
	weightDangerCheck = 0.5
	weightContext     = 0.3
	weightSimilarity  = 0.2
)

// Component scores for each signal
const (
	scoreNeutral          = 1.0
	scoreNoDanger         = 0.7
	scoreTestOrGenerated  = 0.4
	scoreVendored         = 0.3
	scoreOutsideSweetSpot = 0.4
)

// dangerousConstructs is the fixed list the validator re-checks
// independently of whichever analyzer produced the finding
var dangerousConstructs = []*regexp.Regexp{
	regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`),
	regexp.MustCompile(`\b(?:deserialize|unserialize)\s*\(|\byaml\.load\s*\(`),
	regexp.MustCompile(`\b(?:exec|execSync|spawn|spawnSync)\s*\([^)]*(?:\+|\$\{)`),
	regexp.MustCompile(`(?i)["'` + "`" + `]\s*(?:select|insert|update|delete)\b[^"'` + "`" + `]*["'` + "`" + `]?\s*\+`),
}

var (
	testPathHints      = []string{"__tests__", "/test/", "/tests/", ".test.", ".spec.", "_test."}
	generatedPathHints = []string{".min.js", ".bundle.", "generated", ".pb."}
	vendoredPathHints  = []string{"node_modules/", "vendor/", "third_party/", "bower_components/"}
)

// FindingValidator is the Phase 0 false-positive filter. It re-checks the
// snippet for genuinely dangerous constructs, classifies the surrounding
// context, and scores suggested fixes for the similarity sweet spot.
type FindingValidator struct {
	cfg *config.ValidatorConfig
}

// NewFindingValidator creates a validator with the given thresholds
func NewFindingValidator(cfg *config.ValidatorConfig) *FindingValidator {
	return &FindingValidator{cfg: cfg}
}

// Validate scores one finding. sourceText is the full file contents; when
// empty (file unreadable) validation degrades to pattern-check-only and the
// result is flagged as having an unverified context.
func (v *FindingValidator) Validate(finding *domain.Finding, sourceText string) *domain.ValidationResult {
	result := &domain.ValidationResult{Finding: finding}

	// 1. Dangerous-pattern re-check on the snippet
	dangerScore := scoreNoDanger
	if v.hasDangerousConstruct(finding.CodeSnippet) {
		result.DangerousPattern = true
		result.Reasons = append(result.Reasons, "dangerous construct confirmed in snippet")
		dangerScore = scoreNeutral
	}

	// 2. Context classification
	contextScore := scoreNeutral
	if sourceText == "" {
		result.Context = domain.ContextUnverified
		result.UnverifiedContext = true
		result.Reasons = append(result.Reasons, "surrounding context unavailable, pattern check only")
	} else {
		result.Context = ClassifyContext(finding.FilePath, sourceText)
		switch result.Context {
		case domain.ContextTest:
			contextScore = scoreTestOrGenerated
			result.Reasons = append(result.Reasons, "finding sits within test code")
		case domain.ContextGenerated:
			contextScore = scoreTestOrGenerated
			result.Reasons = append(result.Reasons, "finding sits within generated code")
		case domain.ContextVendored:
			contextScore = scoreVendored
			result.Reasons = append(result.Reasons, "finding sits within vendored code")
		}
	}

	// 3. Similarity sweet spot for suggested fixes
	simScore := scoreNeutral
	if finding.SuggestedFix != "" && finding.CodeSnippet != "" {
		similarity := TokenSimilarity(finding.CodeSnippet, finding.SuggestedFix)
		if similarity < v.cfg.SimilarityFloor {
			simScore = scoreOutsideSweetSpot
			result.Reasons = append(result.Reasons, "suggested fix diverges too far from original")
		} else if similarity > v.cfg.SimilarityCeiling {
			simScore = scoreOutsideSweetSpot
			result.Reasons = append(result.Reasons, "suggested fix is nearly identical to original")
		}
	}

	confidence := weightDangerCheck*dangerScore + weightContext*contextScore + weightSimilarity*simScore

	// A confirmed dangerous construct dominates the other signals
	if result.DangerousPattern && confidence < 0.95 {
		confidence = 0.95
	}
	result.Confidence = clamp01(confidence)

	result.Valid = result.Confidence >= v.cfg.AcceptanceThreshold
	result.SafeToApply = result.Valid &&
		!result.DangerousPattern &&
		result.Context != domain.ContextVendored

	return result
}

func (v *FindingValidator) hasDangerousConstruct(snippet string) bool {
	if snippet == "" {
		return false
	}
	for _, re := range dangerousConstructs {
		if re.MatchString(snippet) {
			return true
		}
	}
	return false
}

// ClassifyContext determines what kind of code a file holds from path and
// content heuristics
func ClassifyContext(filePath, sourceText string) domain.ContextClass {
	normalized := strings.ToLower(strings.ReplaceAll(filePath, "\\", "/"))

	for _, hint := range vendoredPathHints {
		if strings.Contains(normalized, hint) {
			return domain.ContextVendored
		}
	}
	for _, hint := range testPathHints {
		if strings.Contains(normalized, hint) {
			return domain.ContextTest
		}
	}
	for _, hint := range generatedPathHints {
		if strings.Contains(normalized, hint) {
			return domain.ContextGenerated
		}
	}

	// generated-file banners appear within the first few lines
	head := sourceText
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(head, "Code generated") || strings.Contains(head, "DO NOT EDIT") ||
		strings.Contains(head, "@generated") {
		return domain.ContextGenerated
	}

	return domain.ContextProduction
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
