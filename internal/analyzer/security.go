package analyzer

import (
	"regexp"
	"strings"
	"time"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/parser"
)

// securityPattern is one entry of the static dangerous-construct registry:
// a compiled expression over raw text plus an optional syntax-tree
// cross-check that must also hold on the matched line
type securityPattern struct {
	ruleID      string
	severity    domain.Severity
	description string
	pattern     *regexp.Regexp

	// confirm re-checks the match against the syntax tree; nil means the
	// textual match stands alone
	confirm func(tree *parser.Tree, line int) bool
}

// securityRegistry is loaded once. Matching logic never changes per entry;
// new constructs are added as new registry rows.
var securityRegistry = []securityPattern{
	{
		ruleID:      constants.RuleHardcodedSecret,
		severity:    domain.SeverityCritical,
		description: "hardcoded credential literal",
		pattern: regexp.MustCompile(
			`(?i)(?:password|passwd|pwd|secret|api[_-]?key|token|credential)\w*\s*[:=]\s*["'` + "`" + `][^"'` + "`" + `]+["'` + "`" + `]`),
		confirm: lineHasStringLiteral,
	},
	{
		ruleID:      constants.RuleDynamicEval,
		severity:    domain.SeverityCritical,
		description: "dynamic code evaluation",
		pattern:     regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`),
		confirm:     lineHasCall,
	},
	{
		ruleID:      constants.RuleUnsafeDeserialization,
		severity:    domain.SeverityCritical,
		description: "unsafe deserialization call",
		pattern:     regexp.MustCompile(`\b(?:deserialize|unserialize)\s*\(|\byaml\.load\s*\(|\bvm\.runInContext\s*\(`),
		confirm:     lineHasCall,
	},
	{
		ruleID:      constants.RuleSQLStringConcat,
		severity:    domain.SeverityHigh,
		description: "SQL query built by string concatenation",
		pattern:     regexp.MustCompile(`(?i)["'` + "`" + `]\s*(?:select|insert|update|delete)\b[^"'` + "`" + `]*["'` + "`" + `]?\s*\+|\$\{[^}]+\}[^` + "`" + `]*(?i:where|from|values)`),
		confirm:     lineHasStringLiteral,
	},
	{
		ruleID:      constants.RuleProductionAssert,
		severity:    domain.SeverityMedium,
		description: "assertion reachable in production code",
		pattern:     regexp.MustCompile(`\bconsole\.assert\s*\(|\bassert\s*\(`),
		confirm:     lineHasCall,
	},
}

// SecurityAnalyzer flags dangerous constructs by matching the pattern
// registry over raw text, cross-checked against the syntax tree to reduce
// false matches, plus purely structural checks (empty catch blocks)
type SecurityAnalyzer struct{}

// NewSecurityAnalyzer creates a security analyzer
func NewSecurityAnalyzer() *SecurityAnalyzer {
	return &SecurityAnalyzer{}
}

// Name identifies this analyzer family
func (a *SecurityAnalyzer) Name() string { return "security" }

// Scan applies the pattern registry line by line, then the structural
// checks over the tree
func (a *SecurityAnalyzer) Scan(file *SourceFile, now time.Time) []*domain.Finding {
	var findings []*domain.Finding

	lines := strings.Split(string(file.Source), "\n")
	for i, lineText := range lines {
		lineNum := i + 1
		for idx := range securityRegistry {
			entry := &securityRegistry[idx]
			if !entry.pattern.MatchString(lineText) {
				continue
			}
			if entry.confirm != nil && file.Tree != nil && !entry.confirm(file.Tree, lineNum) {
				continue
			}
			findings = append(findings, NewFinding(file, lineNum, entry.ruleID,
				domain.CategorySecurity, entry.severity, entry.description, now))
		}
	}

	findings = append(findings, a.scanEmptyCatch(file, now)...)
	return findings
}

// scanEmptyCatch reports catch clauses whose body contains no statements
func (a *SecurityAnalyzer) scanEmptyCatch(file *SourceFile, now time.Time) []*domain.Finding {
	if file.Tree == nil || file.Tree.Root == nil {
		return nil
	}

	var findings []*domain.Finding
	file.Tree.Root.Walk(func(n *parser.Node) bool {
		if n.Kind != "catch_clause" {
			return true
		}
		body := n.ChildByField("body")
		if body == nil {
			return true
		}
		for _, c := range body.NamedChildren() {
			if c.Kind != "comment" {
				return true
			}
		}
		findings = append(findings, NewFinding(file, n.StartLine, constants.RuleEmptyCatch,
			domain.CategorySecurity, domain.SeverityMedium,
			"exception handler silently swallows errors", now))
		return true
	})
	return findings
}

// lineHasStringLiteral confirms the syntax tree has a string or template
// literal on the given line
func lineHasStringLiteral(tree *parser.Tree, line int) bool {
	return nodeOnLine(tree, line, func(n *parser.Node) bool {
		switch n.Kind {
		case "string", "template_string", "string_fragment":
			return true
		}
		return false
	})
}

// lineHasCall confirms the syntax tree has a call or constructor
// expression on the given line
func lineHasCall(tree *parser.Tree, line int) bool {
	return nodeOnLine(tree, line, func(n *parser.Node) bool {
		return n.Kind == "call_expression" || n.Kind == "new_expression"
	})
}

func nodeOnLine(tree *parser.Tree, line int, match func(*parser.Node) bool) bool {
	if tree == nil || tree.Root == nil {
		return false
	}
	found := false
	tree.Root.Walk(func(n *parser.Node) bool {
		if found {
			return false
		}
		if n.EndLine < line || n.StartLine > line {
			return false
		}
		if match(n) {
			found = true
			return false
		}
		return true
	})
	return found
}
