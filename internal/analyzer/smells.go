package analyzer

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/parser"
)

// numericAllowList holds literals that never count as magic numbers
var numericAllowList = map[string]bool{
	"0": true, "1": true, "-1": true,
}

var todoMarker = regexp.MustCompile(`(?i)\b(TODO|FIXME)\b`)

// codeLikeComment matches comment text that looks like commented-out code
// rather than prose
var codeLikeComment = regexp.MustCompile(`^\s*(?:const |let |var |function |return |if\s*\(|for\s*\(|while\s*\(|[\w.$]+\s*\(.*\)\s*;?\s*$|[\w.$]+\s*=\s*)`)

// SmellsAnalyzer flags structural maintainability problems: oversized
// functions and classes, deep nesting, magic numbers, duplicated code
// blocks, TODO markers, and commented-out code.
type SmellsAnalyzer struct {
	cfg *config.SmellsConfig
}

// NewSmellsAnalyzer creates a smells analyzer with the given thresholds
func NewSmellsAnalyzer(cfg *config.SmellsConfig) *SmellsAnalyzer {
	return &SmellsAnalyzer{cfg: cfg}
}

// Name identifies this analyzer family
func (a *SmellsAnalyzer) Name() string { return "smells" }

// Scan runs all structural checks over one file
func (a *SmellsAnalyzer) Scan(file *SourceFile, now time.Time) []*domain.Finding {
	if file.Tree == nil || file.Tree.Root == nil {
		return nil
	}

	var findings []*domain.Finding
	findings = append(findings, a.scanFunctions(file, now)...)
	findings = append(findings, a.scanClasses(file, now)...)
	findings = append(findings, a.scanMagicNumbers(file, now)...)
	findings = append(findings, a.scanDuplicateBlocks(file, now)...)
	findings = append(findings, a.scanComments(file, now)...)
	return findings
}

func (a *SmellsAnalyzer) scanFunctions(file *SourceFile, now time.Time) []*domain.Finding {
	var findings []*domain.Finding
	file.Tree.Root.Walk(func(n *parser.Node) bool {
		if !n.IsFunction() {
			return true
		}
		name := n.FunctionName()

		if lines := n.LineCount(); lines > a.cfg.MaxFunctionLines {
			f := NewFinding(file, n.StartLine, constants.RuleLongFunction,
				domain.CategorySmell, domain.SeverityMedium,
				fmt.Sprintf("function %q spans %d lines (limit %d)", name, lines, a.cfg.MaxFunctionLines), now)
			f.FunctionName = name
			findings = append(findings, f)
		}

		if params := n.ParamCount(); params > a.cfg.MaxParameters {
			f := NewFinding(file, n.StartLine, constants.RuleTooManyParams,
				domain.CategorySmell, domain.SeverityMedium,
				fmt.Sprintf("function %q takes %d parameters (limit %d)", name, params, a.cfg.MaxParameters), now)
			f.FunctionName = name
			f.SuggestedFix = "group related parameters into an options object"
			findings = append(findings, f)
		}

		if depth := MaxNestingDepth(n); depth > a.cfg.MaxNestingDepth {
			f := NewFinding(file, n.StartLine, constants.RuleDeepNesting,
				domain.CategorySmell, domain.SeverityMedium,
				fmt.Sprintf("function %q nests %d levels deep (limit %d)", name, depth, a.cfg.MaxNestingDepth), now)
			f.FunctionName = name
			f.SuggestedFix = "flatten control flow with early returns"
			findings = append(findings, f)
		}
		return true
	})
	return findings
}

func (a *SmellsAnalyzer) scanClasses(file *SourceFile, now time.Time) []*domain.Finding {
	var findings []*domain.Finding
	file.Tree.Root.Walk(func(n *parser.Node) bool {
		if n.Kind != "class_declaration" && n.Kind != "class" {
			return true
		}
		if lines := n.LineCount(); lines > a.cfg.MaxClassLines {
			name := "<anonymous>"
			if id := n.ChildByField("name"); id != nil {
				name = id.Text()
			}
			findings = append(findings, NewFinding(file, n.StartLine, constants.RuleLargeClass,
				domain.CategorySmell, domain.SeverityHigh,
				fmt.Sprintf("class %q spans %d lines (limit %d)", name, lines, a.cfg.MaxClassLines), now))
		}
		return true
	})
	return findings
}

// scanMagicNumbers reports numeric literals outside the allow-list that are
// not bound to a named constant
func (a *SmellsAnalyzer) scanMagicNumbers(file *SourceFile, now time.Time) []*domain.Finding {
	var findings []*domain.Finding
	seen := map[int]bool{}

	var walk func(n *parser.Node, constCtx bool)
	walk = func(n *parser.Node, constCtx bool) {
		if n.Kind == "lexical_declaration" && strings.HasPrefix(n.Text(), "const") {
			constCtx = true
		}
		if n.Kind == "number" && !constCtx {
			value := strings.TrimSpace(n.Text())
			if !numericAllowList[value] && !seen[n.StartLine] {
				seen[n.StartLine] = true
				findings = append(findings, NewFinding(file, n.StartLine, constants.RuleMagicNumber,
					domain.CategorySmell, domain.SeverityLow,
					fmt.Sprintf("numeric literal %s should be a named constant", value), now))
			}
		}
		for _, c := range n.Children {
			walk(c, constCtx)
		}
	}
	walk(file.Tree.Root, false)
	return findings
}

// scanDuplicateBlocks hashes fixed-size token windows and reports windows
// whose hash repeats within the file
func (a *SmellsAnalyzer) scanDuplicateBlocks(file *SourceFile, now time.Time) []*domain.Finding {
	window := a.cfg.DuplicateWindow
	if window <= 0 {
		window = config.DefaultDuplicateWindowTokens
	}

	type token struct {
		text string
		line int
	}
	var tokens []token
	file.Tree.Root.Walk(func(n *parser.Node) bool {
		if n.Kind == "comment" {
			return false
		}
		if len(n.Children) == 0 && n.Named {
			tokens = append(tokens, token{text: n.Text(), line: n.StartLine})
		}
		return true
	})

	if len(tokens) < window*2 {
		return nil
	}

	firstSeen := map[uint64]int{}
	var findings []*domain.Finding
	reported := map[int]bool{}

	for i := 0; i+window <= len(tokens); i++ {
		h := fnv.New64a()
		for _, t := range tokens[i : i+window] {
			h.Write([]byte(t.text))
			h.Write([]byte{0})
		}
		sum := h.Sum64()

		origin, dup := firstSeen[sum]
		if !dup {
			firstSeen[sum] = tokens[i].line
			continue
		}
		line := tokens[i].line
		if line != origin && !reported[line] {
			reported[line] = true
			findings = append(findings, NewFinding(file, line, constants.RuleDuplicateBlock,
				domain.CategorySmell, domain.SeverityMedium,
				fmt.Sprintf("code block duplicates the block at line %d", origin), now))
		}
	}
	return findings
}

// scanComments reports TODO/FIXME markers and contiguous commented-out code
func (a *SmellsAnalyzer) scanComments(file *SourceFile, now time.Time) []*domain.Finding {
	var findings []*domain.Finding
	lastCodeComment := -2
	blockStart := -1

	flushBlock := func() {
		// a single commented-out line is tolerated; contiguous blocks are not
		if blockStart >= 0 && lastCodeComment > blockStart {
			findings = append(findings, NewFinding(file, blockStart, constants.RuleCommentedOutCode,
				domain.CategorySmell, domain.SeverityLow,
				"contiguous block of commented-out code", now))
		}
		blockStart = -1
	}

	file.Tree.Root.Walk(func(n *parser.Node) bool {
		if n.Kind != "comment" {
			return true
		}
		text := strings.TrimPrefix(n.Text(), "//")
		text = strings.TrimPrefix(text, "/*")

		if todoMarker.MatchString(text) {
			findings = append(findings, NewFinding(file, n.StartLine, constants.RuleTodoMarker,
				domain.CategorySmell, domain.SeverityLow,
				"unresolved TODO/FIXME marker", now))
		}

		if codeLikeComment.MatchString(text) {
			if n.StartLine != lastCodeComment+1 {
				flushBlock()
				blockStart = n.StartLine
			}
			lastCodeComment = n.StartLine
		}
		return true
	})
	flushBlock()
	return findings
}
