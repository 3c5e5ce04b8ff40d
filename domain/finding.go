package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Severity represents the ordered criticality of a finding.
// The ordering Info < Low < Medium < High < Critical is total and is used
// both for filtering and for sorting report output.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "info",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

// String returns the lowercase name of the severity
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalJSON encodes the severity as its lowercase name
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a lowercase severity name
func (s *Severity) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' {
		name = name[1 : len(name)-1]
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the severity as its lowercase name
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// ParseSeverity converts a severity name to its enum value
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if n == name {
			return sev, nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity: %q", name)
}

// IsValid reports whether the severity is one an analyzer may emit.
// Analyzers produce Low through Critical; Info only appears on externally
// stored records.
func (s Severity) IsValid() bool {
	return s >= SeverityLow && s <= SeverityCritical
}

// Category classifies what kind of issue a finding describes
type Category string

const (
	CategoryComplexity Category = "complexity"
	CategorySecurity   Category = "security"
	CategorySmell      Category = "smell"
	CategoryStyle      Category = "style"
)

// Status is the external lifecycle state of a persisted finding.
// The engine never mutates status; it is changed by downstream consumers.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
	StatusFixed        Status = "fixed"
	StatusIgnored      Status = "ignored"
)

// Finding is one detected code issue. It is the canonical unit of output of
// the analysis pipeline and the durable contract consumed by the correlation
// engine.
type Finding struct {
	// ID is deterministic over (file path, line, rule id) so re-analysis of
	// unchanged code yields the same identifier
	ID string `json:"id"`

	FilePath     string `json:"file_path"`
	Line         int    `json:"line"`
	FunctionName string `json:"function_name,omitempty"`

	Category Category `json:"category"`
	Severity Severity `json:"severity"`

	Description  string `json:"description"`
	SuggestedFix string `json:"suggested_fix,omitempty"`

	// CodeSnippet is bounded and secret-masked before persistence
	CodeSnippet string `json:"code_snippet,omitempty"`

	RuleID    string    `json:"rule_id"`
	CreatedAt time.Time `json:"created_at"`

	// DuplicateOf references the canonical finding this one duplicates.
	// Always an earlier-created finding, never itself.
	DuplicateOf string `json:"duplicate_of,omitempty"`

	Status Status `json:"status"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// FindingID derives the stable identifier for a finding location.
// Idempotent re-runs over unchanged code produce identical ids, which keys
// the append-only store write path.
func FindingID(filePath string, line int, ruleID string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s", filePath, line, ruleID))
	return hex.EncodeToString(sum[:16])
}

// IsDuplicate reports whether this finding was linked to a canonical one
func (f *Finding) IsDuplicate() bool {
	return f.DuplicateOf != ""
}

// Location returns a file:line reference for display
func (f *Finding) Location() string {
	return fmt.Sprintf("%s:%d", f.FilePath, f.Line)
}

// StoredFinding is the persisted finding record schema (the cross-system
// contract between the analysis pipeline and the correlation engine).
type StoredFinding struct {
	ID           string            `json:"_key"`
	CreatedAt    time.Time         `json:"created_at"`
	FilePath     string            `json:"file_path"`
	Line         int               `json:"line"`
	FunctionName string            `json:"function_name,omitempty"`
	Category     Category          `json:"category"`
	Severity     Severity          `json:"severity"`
	SeverityRank int               `json:"severity_rank"`
	Description  string            `json:"description"`
	RuleID       string            `json:"rule_id,omitempty"`
	CodeSnippet  string            `json:"code_snippet,omitempty"`
	SuggestedFix string            `json:"suggested_fix,omitempty"`
	SourceEvent  string            `json:"source_event,omitempty"`
	Status       Status            `json:"status"`
	FixedAt      *time.Time        `json:"fixed_at,omitempty"`
	FixedBy      string            `json:"fixed_by,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	RecordedAt   time.Time         `json:"recorded_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ToStored converts a pipeline finding into its persisted record form
func (f *Finding) ToStored(now time.Time) *StoredFinding {
	status := f.Status
	if status == "" {
		status = StatusOpen
	}
	return &StoredFinding{
		ID:           f.ID,
		CreatedAt:    f.CreatedAt,
		FilePath:     f.FilePath,
		Line:         f.Line,
		FunctionName: f.FunctionName,
		Category:     f.Category,
		Severity:     f.Severity,
		SeverityRank: int(f.Severity),
		Description:  f.Description,
		RuleID:       f.RuleID,
		CodeSnippet:  f.CodeSnippet,
		SuggestedFix: f.SuggestedFix,
		Status:       status,
		Metadata:     f.Metadata,
		RecordedAt:   now,
		UpdatedAt:    now,
	}
}
