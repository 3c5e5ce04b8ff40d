package analyzer

import (
	"fmt"
	"regexp"
	"time"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/parser"
)

var (
	camelCase  = regexp.MustCompile(`^[a-z$_][a-zA-Z0-9$]*$`)
	pascalCase = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
)

// BestPracticeAnalyzer checks documentation and naming conventions:
// missing doc comments on exported declarations, single-letter identifiers
// outside loop-counter contexts, and style-guide naming mismatches
// (camelCase functions, PascalCase classes).
type BestPracticeAnalyzer struct{}

// NewBestPracticeAnalyzer creates a best-practices analyzer
func NewBestPracticeAnalyzer() *BestPracticeAnalyzer {
	return &BestPracticeAnalyzer{}
}

// Name identifies this analyzer family
func (a *BestPracticeAnalyzer) Name() string { return "bestpractice" }

// Scan runs the documentation and naming checks over one file
func (a *BestPracticeAnalyzer) Scan(file *SourceFile, now time.Time) []*domain.Finding {
	if file.Tree == nil || file.Tree.Root == nil {
		return nil
	}

	var findings []*domain.Finding
	findings = append(findings, a.scanExportedDocs(file, now)...)
	findings = append(findings, a.scanIdentifiers(file, now)...)
	return findings
}

// scanExportedDocs reports exported functions and classes that have no
// leading comment
func (a *BestPracticeAnalyzer) scanExportedDocs(file *SourceFile, now time.Time) []*domain.Finding {
	root := file.Tree.Root

	// comment end lines, for adjacency checks
	commentEnds := map[int]bool{}
	root.Walk(func(n *parser.Node) bool {
		if n.Kind == "comment" {
			commentEnds[n.EndLine] = true
		}
		return true
	})

	var findings []*domain.Finding
	root.Walk(func(n *parser.Node) bool {
		if n.Kind != "export_statement" {
			return true
		}
		decl := n.ChildByField("declaration")
		if decl == nil {
			return true
		}

		var kind string
		switch decl.Kind {
		case "function_declaration", "generator_function_declaration":
			kind = "function"
		case "class_declaration":
			kind = "class"
		default:
			return true
		}

		if !commentEnds[n.StartLine-1] {
			name := decl.FunctionName()
			if kind == "class" {
				if id := decl.ChildByField("name"); id != nil {
					name = id.Text()
				}
			}
			findings = append(findings, NewFinding(file, n.StartLine, constants.RuleMissingDoc,
				domain.CategoryStyle, domain.SeverityLow,
				fmt.Sprintf("exported %s %q has no doc comment", kind, name), now))
		}
		return true
	})
	return findings
}

// scanIdentifiers reports single-letter names declared outside loop-counter
// contexts and naming-convention mismatches on functions and classes
func (a *BestPracticeAnalyzer) scanIdentifiers(file *SourceFile, now time.Time) []*domain.Finding {
	var findings []*domain.Finding
	seen := map[string]bool{}

	var walk func(n *parser.Node, inLoopHeader bool)
	walk = func(n *parser.Node, inLoopHeader bool) {
		switch n.Kind {
		case "for_statement", "for_in_statement", "for_of_statement":
			// loop initializers legitimately use i/j/k counters
			for _, c := range n.Children {
				walk(c, c.Field != "body")
			}
			return

		case "variable_declarator":
			if id := n.ChildByField("name"); id != nil && id.Kind == "identifier" {
				name := id.Text()
				key := fmt.Sprintf("%s:%d", name, id.StartLine)
				if len(name) == 1 && !inLoopHeader && !seen[key] {
					seen[key] = true
					findings = append(findings, NewFinding(file, id.StartLine, constants.RuleShortIdentifier,
						domain.CategoryStyle, domain.SeverityLow,
						fmt.Sprintf("single-letter identifier %q outside a loop counter context", name), now))
				}
			}

		case "function_declaration", "generator_function_declaration":
			if id := n.ChildByField("name"); id != nil {
				if name := id.Text(); !camelCase.MatchString(name) {
					findings = append(findings, NewFinding(file, id.StartLine, constants.RuleNamingConvention,
						domain.CategoryStyle, domain.SeverityLow,
						fmt.Sprintf("function %q should be camelCase", name), now))
				}
			}

		case "class_declaration":
			if id := n.ChildByField("name"); id != nil {
				if name := id.Text(); !pascalCase.MatchString(name) {
					findings = append(findings, NewFinding(file, id.StartLine, constants.RuleNamingConvention,
						domain.CategoryStyle, domain.SeverityLow,
						fmt.Sprintf("class %q should be PascalCase", name), now))
				}
			}
		}

		for _, c := range n.Children {
			walk(c, inLoopHeader)
		}
	}
	walk(file.Tree.Root, false)
	return findings
}
