package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"gopkg.in/yaml.v3"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/constants"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// reportEnvelope is the wire shape for JSON and YAML output
type reportEnvelope struct {
	Version        string                               `json:"version" yaml:"version"`
	GeneratedAt    string                               `json:"generated_at" yaml:"generated_at"`
	DurationMs     int64                                `json:"duration_ms" yaml:"duration_ms"`
	Passed         bool                                 `json:"passed" yaml:"passed"`
	Findings       []*domain.Finding                    `json:"findings" yaml:"findings"`
	Validations    map[string]*domain.ValidationResult  `json:"validations,omitempty" yaml:"validations,omitempty"`
	SeverityCounts map[string]int                       `json:"severity_counts" yaml:"severity_counts"`
	CategoryCounts map[string]int                       `json:"category_counts" yaml:"category_counts"`
	DuplicateCount int                                  `json:"duplicate_count" yaml:"duplicate_count"`
	Metadata       domain.ReportMetadata                `json:"metadata" yaml:"metadata"`
}

func envelope(report *domain.AnalysisReport) reportEnvelope {
	return reportEnvelope{
		Version:        report.Metadata.Version,
		GeneratedAt:    report.Metadata.GeneratedAt.Format(time.RFC3339),
		DurationMs:     report.DurationMS,
		Passed:         report.Passed,
		Findings:       report.Findings,
		Validations:    report.Validations,
		SeverityCounts: report.SeverityCounts,
		CategoryCounts: report.CategoryCounts,
		DuplicateCount: report.DuplicateCount,
		Metadata:       report.Metadata,
	}
}

// Write renders the report in the specified format
func (f *OutputFormatterImpl) Write(report *domain.AnalysisReport, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return f.writeJSON(report, writer)
	case domain.OutputFormatYAML:
		return f.writeYAML(report, writer)
	case domain.OutputFormatSARIF:
		return f.writeSARIF(report, writer)
	case domain.OutputFormatText, "":
		return f.writeText(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func (f *OutputFormatterImpl) writeJSON(report *domain.AnalysisReport, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(envelope(report))
}

func (f *OutputFormatterImpl) writeYAML(report *domain.AnalysisReport, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	defer encoder.Close()
	return encoder.Encode(envelope(report))
}

func (f *OutputFormatterImpl) writeText(report *domain.AnalysisReport, writer io.Writer) error {
	var b strings.Builder

	b.WriteString("Code Analysis Report\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	fmt.Fprintf(&b, "Files analyzed: %d\n", report.Metadata.FilesAnalyzed)
	fmt.Fprintf(&b, "Findings:       %d", len(report.Findings))
	if report.DuplicateCount > 0 {
		fmt.Fprintf(&b, " (%d duplicate)", report.DuplicateCount)
	}
	b.WriteString("\n")
	if report.Metadata.CacheHits > 0 {
		fmt.Fprintf(&b, "Cache hits:     %d\n", report.Metadata.CacheHits)
	}
	fmt.Fprintf(&b, "Duration:       %dms\n\n", report.DurationMS)

	if len(report.SeverityCounts) > 0 {
		b.WriteString("By severity:\n")
		for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow, domain.SeverityInfo} {
			if n := report.SeverityCounts[sev.String()]; n > 0 {
				fmt.Fprintf(&b, "  %-10s %d\n", sev.String(), n)
			}
		}
		b.WriteString("\n")
	}

	for _, finding := range report.Findings {
		marker := severityMarker(finding.Severity)
		fmt.Fprintf(&b, "%s [%s] %s:%d", marker, strings.ToUpper(finding.Severity.String()), finding.FilePath, finding.Line)
		if finding.FunctionName != "" {
			fmt.Fprintf(&b, " (%s)", finding.FunctionName)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "    %s\n", finding.Description)
		if finding.IsDuplicate() {
			fmt.Fprintf(&b, "    duplicate of %s\n", finding.DuplicateOf)
		}
		if v, ok := report.Validations[finding.ID]; ok {
			fmt.Fprintf(&b, "    confidence %.2f (%s context)", v.Confidence, v.Context)
			if v.DangerousPattern {
				b.WriteString(" [dangerous pattern]")
			}
			b.WriteString("\n")
		}
		if finding.SuggestedFix != "" {
			fmt.Fprintf(&b, "    fix: %s\n", finding.SuggestedFix)
		}
	}

	if len(report.Metadata.Degradations) > 0 {
		b.WriteString("\nDegradations:\n")
		for _, d := range report.Metadata.Degradations {
			fmt.Fprintf(&b, "  %s: %s\n", d.Stage, d.Reason)
		}
	}

	b.WriteString("\n")
	if report.Passed {
		b.WriteString("Result: PASS\n")
	} else {
		b.WriteString("Result: FAIL\n")
	}

	_, err := writer.Write([]byte(b.String()))
	return err
}

func severityMarker(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "✗"
	case domain.SeverityHigh:
		return "!"
	case domain.SeverityMedium:
		return "~"
	default:
		return "·"
	}
}

func (f *OutputFormatterImpl) writeSARIF(report *domain.AnalysisReport, writer io.Writer) error {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(constants.ToolName, constants.ToolURL)

	ruleIDs := map[string]bool{}
	for _, finding := range report.Findings {
		ruleIDs[finding.RuleID] = true
	}
	ordered := make([]string, 0, len(ruleIDs))
	for id := range ruleIDs {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)
	for _, id := range ordered {
		run.AddRule(id).
			WithDescription(id).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: "warning",
			})
	}

	for _, finding := range report.Findings {
		location := sarif.NewLocation().
			WithPhysicalLocation(sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewSimpleArtifactLocation(finding.FilePath)).
				WithRegion(sarif.NewRegion().WithStartLine(findingLine(finding))))

		result := sarif.NewRuleResult(finding.RuleID).
			WithMessage(sarif.NewTextMessage(finding.Description)).
			WithLevel(sarifLevel(finding.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	sarifReport.AddRun(run)
	return sarifReport.PrettyWrite(writer)
}

// SARIF has no critical level, so both high and critical map to error
func sarifLevel(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "error"
	case domain.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// SARIF regions require startLine >= 1; file-level findings report line 1
func findingLine(f *domain.Finding) int {
	if f.Line < 1 {
		return 1
	}
	return f.Line
}
