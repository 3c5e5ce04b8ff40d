package analyzer

import (
	"testing"
	"time"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/testutil"
)

func scanSecurity(t *testing.T, source string) []*domain.Finding {
	t.Helper()
	tree := testutil.ParseSource(t, source)
	file := &SourceFile{Path: "src/app.js", Source: []byte(source), Tree: tree}
	return NewSecurityAnalyzer().Scan(file, time.Now())
}

func findingsByRule(findings []*domain.Finding, ruleID string) []*domain.Finding {
	var out []*domain.Finding
	for _, f := range findings {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

func TestHardcodedSecretDetection(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"string literal assignment", `const password = "admin123";`, 1},
		{"api key property", `const cfg = { apiKey: "sk-12345abcdef" };`, 1},
		{"secret via lookup call", `const password = get_secret("db");`, 0},
		{"secret from env", `const token = process.env.API_TOKEN;`, 0},
		{"unrelated string", `const greeting = "hello world";`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findingsByRule(scanSecurity(t, tt.source), constants.RuleHardcodedSecret)
			if len(got) != tt.want {
				t.Errorf("expected %d hardcoded-secret findings, got %d", tt.want, len(got))
			}
			for _, f := range got {
				if f.Severity != domain.SeverityCritical {
					t.Errorf("hardcoded secrets are critical, got %s", f.Severity)
				}
			}
		})
	}
}

func TestSecretRedactionInSnippet(t *testing.T) {
	findings := findingsByRule(
		scanSecurity(t, `const password = "hunter2secret";`),
		constants.RuleHardcodedSecret)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	snippet := findings[0].CodeSnippet
	if snippet == "" {
		t.Fatal("expected a snippet")
	}
	if containsSubstring(snippet, "hunter2secret") {
		t.Errorf("snippet leaked the secret value: %q", snippet)
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestDynamicEvalDetection(t *testing.T) {
	findings := findingsByRule(
		scanSecurity(t, `const result = eval(userInput);`),
		constants.RuleDynamicEval)
	if len(findings) != 1 {
		t.Fatalf("expected 1 dynamic-eval finding, got %d", len(findings))
	}
	if findings[0].Severity != domain.SeverityCritical {
		t.Errorf("dynamic eval is critical, got %s", findings[0].Severity)
	}

	none := findingsByRule(
		scanSecurity(t, `const evaluation = compute(score);`),
		constants.RuleDynamicEval)
	if len(none) != 0 {
		t.Errorf("identifier containing 'eval' must not match, got %d findings", len(none))
	}
}

func TestNewFunctionDetection(t *testing.T) {
	findings := findingsByRule(
		scanSecurity(t, `const fn = new Function("x", "return x * 2");`),
		constants.RuleDynamicEval)
	if len(findings) != 1 {
		t.Errorf("expected 1 finding for new Function, got %d", len(findings))
	}
}

func TestSQLStringConcat(t *testing.T) {
	source := `const q = "SELECT * FROM users WHERE id = " + userId;`
	findings := findingsByRule(scanSecurity(t, source), constants.RuleSQLStringConcat)
	if len(findings) != 1 {
		t.Fatalf("expected 1 sql-string-concat finding, got %d", len(findings))
	}
	if findings[0].Severity != domain.SeverityHigh {
		t.Errorf("sql concatenation is high, got %s", findings[0].Severity)
	}
}

func TestProductionAssert(t *testing.T) {
	findings := findingsByRule(
		scanSecurity(t, `console.assert(items.length > 0);`),
		constants.RuleProductionAssert)
	if len(findings) != 1 {
		t.Fatalf("expected 1 production-assert finding, got %d", len(findings))
	}
	if findings[0].Severity != domain.SeverityMedium {
		t.Errorf("production assert is medium, got %s", findings[0].Severity)
	}
}

func TestEmptyCatch(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"empty handler", `try { risky(); } catch (e) {}`, 1},
		{"comment-only handler", "try { risky(); } catch (e) {\n  // ignore\n}", 1},
		{"handler with statement", `try { risky(); } catch (e) { log(e); }`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findingsByRule(scanSecurity(t, tt.source), constants.RuleEmptyCatch)
			if len(got) != tt.want {
				t.Errorf("expected %d empty-catch findings, got %d", tt.want, len(got))
			}
		})
	}
}
