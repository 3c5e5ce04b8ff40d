package analyzer

import (
	"strings"
	"time"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/parser"
)

// MaxSnippetLength bounds the code snippet attached to a finding
const MaxSnippetLength = 200

// SourceFile is one parsed input to the rule analyzers
type SourceFile struct {
	Path   string
	Source []byte
	Tree   *parser.Tree
}

// Analyzer is a stateless scanner emitting zero or more raw findings for
// one source file. Implementations are pure functions of their input and
// are constructed fresh per run.
type Analyzer interface {
	Name() string
	Scan(file *SourceFile, now time.Time) []*domain.Finding
}

// NewFinding builds a finding with its deterministic identifier, a redacted
// bounded snippet, and open status
func NewFinding(file *SourceFile, line int, ruleID string, category domain.Category,
	severity domain.Severity, description string, now time.Time) *domain.Finding {

	return &domain.Finding{
		ID:          domain.FindingID(file.Path, line, ruleID),
		FilePath:    file.Path,
		Line:        line,
		Category:    category,
		Severity:    severity,
		Description: description,
		CodeSnippet: SnippetAt(file.Source, line),
		RuleID:      ruleID,
		CreatedAt:   now,
		Status:      domain.StatusOpen,
	}
}

// SnippetAt extracts the trimmed source line at the given 1-based line
// number, secret-masked and bounded to MaxSnippetLength
func SnippetAt(source []byte, line int) string {
	lines := strings.Split(string(source), "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	snippet := strings.TrimSpace(lines[line-1])
	if len(snippet) > MaxSnippetLength {
		snippet = snippet[:MaxSnippetLength]
	}
	return RedactSecrets(snippet)
}
