package analyzer

import (
	"fmt"
	"time"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/parser"
)

// ComplexityAnalyzer reports functions whose cyclomatic complexity crosses
// the configured decision-node thresholds. The cyclomatic count is
// 1 + the number of control-flow-affecting nodes in the function body,
// nested function scopes excluded.
type ComplexityAnalyzer struct {
	cfg *config.ComplexityConfig
}

// NewComplexityAnalyzer creates a complexity analyzer with the given
// thresholds
func NewComplexityAnalyzer(cfg *config.ComplexityConfig) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{cfg: cfg}
}

// Name identifies this analyzer family
func (a *ComplexityAnalyzer) Name() string { return "complexity" }

// Scan walks every function in the file and emits one finding per function
// above the medium threshold
func (a *ComplexityAnalyzer) Scan(file *SourceFile, now time.Time) []*domain.Finding {
	if file.Tree == nil || file.Tree.Root == nil {
		return nil
	}

	var findings []*domain.Finding
	file.Tree.Root.Walk(func(n *parser.Node) bool {
		if !n.IsFunction() {
			return true
		}

		decisions := CountDecisionPoints(n)
		severity, flagged := a.assess(decisions)
		if flagged {
			name := n.FunctionName()
			f := NewFinding(file, n.StartLine, constants.RuleHighComplexity,
				domain.CategoryComplexity, severity,
				fmt.Sprintf("function %q has cyclomatic complexity %d (%d decision points)",
					name, decisions+1, decisions), now)
			f.FunctionName = name
			f.SuggestedFix = fmt.Sprintf("split %q into smaller functions with a single responsibility", name)
			findings = append(findings, f)
		}

		// Nested functions are scanned on their own by the walk
		return true
	})
	return findings
}

// assess maps a decision-node count to a severity using strict
// greater-than boundaries: 6 nodes is medium, 11 high, 21 critical
func (a *ComplexityAnalyzer) assess(decisions int) (domain.Severity, bool) {
	switch {
	case decisions > a.cfg.CriticalThreshold:
		return domain.SeverityCritical, true
	case decisions > a.cfg.HighThreshold:
		return domain.SeverityHigh, true
	case decisions > a.cfg.MediumThreshold:
		return domain.SeverityMedium, true
	default:
		return domain.SeverityLow, false
	}
}

// CountDecisionPoints counts control-flow-affecting nodes inside a function
// body: branches, loops, switch cases, exception handlers, boolean
// short-circuit operators, and ternaries. Nested function scopes do not
// contribute to the enclosing function's count.
func CountDecisionPoints(fn *parser.Node) int {
	count := 0
	first := true
	fn.Walk(func(n *parser.Node) bool {
		if first {
			first = false
			return true
		}
		if n.IsFunction() {
			return false
		}
		if isDecisionPoint(n) {
			count++
		}
		return true
	})
	return count
}

func isDecisionPoint(n *parser.Node) bool {
	switch n.Kind {
	case "if_statement",
		"for_statement", "for_in_statement", "for_of_statement",
		"while_statement", "do_statement",
		"switch_case",
		"catch_clause",
		"ternary_expression":
		return true
	case "binary_expression":
		if op := n.ChildByField("operator"); op != nil {
			switch op.Kind {
			case "&&", "||", "??":
				return true
			}
		}
	}
	return false
}

// MaxNestingDepth returns the deepest control-structure nesting inside a
// function, nested function scopes excluded
func MaxNestingDepth(fn *parser.Node) int {
	var walk func(n *parser.Node, depth int) int
	walk = func(n *parser.Node, depth int) int {
		max := depth
		for _, c := range n.Children {
			if c.IsFunction() {
				continue
			}
			d := depth
			if isNestingStructure(c) {
				d++
			}
			if got := walk(c, d); got > max {
				max = got
			}
		}
		return max
	}
	return walk(fn, 0)
}

func isNestingStructure(n *parser.Node) bool {
	switch n.Kind {
	case "if_statement", "switch_statement",
		"for_statement", "for_in_statement", "for_of_statement",
		"while_statement", "do_statement",
		"try_statement", "catch_clause":
		return true
	}
	return false
}
