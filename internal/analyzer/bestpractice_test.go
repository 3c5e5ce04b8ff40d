package analyzer

import (
	"testing"
	"time"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/testutil"
)

func scanBestPractice(t *testing.T, source string) []*domain.Finding {
	t.Helper()
	tree := testutil.ParseSource(t, source)
	file := &SourceFile{Path: "src/app.js", Source: []byte(source), Tree: tree}
	return NewBestPracticeAnalyzer().Scan(file, time.Now())
}

func TestMissingDocOnExports(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{
			"undocumented exported function",
			"export function chargeCard(order) { return order; }\n",
			1,
		},
		{
			"documented exported function",
			"// chargeCard bills the order's payment method.\nexport function chargeCard(order) { return order; }\n",
			0,
		},
		{
			"undocumented exported class",
			"export class PaymentGateway {}\n",
			1,
		},
		{
			"unexported function needs no doc",
			"function helper() { return 1; }\n",
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findingsByRule(scanBestPractice(t, tt.source), constants.RuleMissingDoc)
			if len(got) != tt.want {
				t.Errorf("expected %d missing-doc findings, got %d", tt.want, len(got))
			}
		})
	}
}

func TestShortIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"single letter variable", "const x = fetchTotal();\n", 1},
		{"descriptive variable", "const total = fetchTotal();\n", 0},
		{"loop counter exempt", "for (let i = 0; i < 10; i++) { use(i); }\n", 0},
		{"single letter outside loop body", "for (let i = 0; i < 10; i++) { const v = read(i); use(v); }\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findingsByRule(scanBestPractice(t, tt.source), constants.RuleShortIdentifier)
			if len(got) != tt.want {
				t.Errorf("expected %d short-identifier findings, got %d", tt.want, len(got))
			}
		})
	}
}

func TestNamingConventions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"camelCase function passes", "function chargeCard() {}\n", 0},
		{"snake_case function flagged", "function charge_card() {}\n", 1},
		{"PascalCase class passes", "class PaymentGateway {}\n", 0},
		{"lowercase class flagged", "class paymentGateway {}\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findingsByRule(scanBestPractice(t, tt.source), constants.RuleNamingConvention)
			if len(got) != tt.want {
				t.Errorf("expected %d naming-convention findings, got %d", tt.want, len(got))
			}
		})
	}
}
