package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/store"
)

func writeSourceFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func newTestPipeline(opts ...PipelineOption) *PipelineService {
	cfg := config.DefaultConfig()
	capabilities := NewStaticCapabilityResolver(nil)
	return NewPipelineService(cfg, capabilities, opts...)
}

func TestAnalyzeFindsAndFails(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "app.js", `const password = "admin123";`)
	writeSourceFile(t, dir, "util.js", "function add(a, b) { return a + b; }\n")

	pipeline := newTestPipeline()
	report, err := pipeline.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths:     []string{dir},
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Metadata.FilesAnalyzed != 2 {
		t.Errorf("expected 2 files analyzed, got %d", report.Metadata.FilesAnalyzed)
	}

	secrets := 0
	for _, f := range report.Findings {
		if f.RuleID == constants.RuleHardcodedSecret {
			secrets++
		}
	}
	if secrets != 1 {
		t.Errorf("expected exactly 1 hardcoded-secret finding, got %d", secrets)
	}

	if report.Passed {
		t.Error("a critical finding must fail the default gate")
	}
	if report.SeverityCounts["critical"] < 1 {
		t.Errorf("expected critical in severity counts, got %v", report.SeverityCounts)
	}
	if pipeline.State() != domain.StateDone {
		t.Errorf("expected done state, got %s", pipeline.State())
	}
	if report.Metadata.RunID == "" {
		t.Error("report must carry a run id")
	}
}

func TestAnalyzeDeterministicOrdering(t *testing.T) {
	dir := t.TempDir()
	source := `const password = "admin123";
let timeout = 5000;
const q = "SELECT * FROM users WHERE id = " + id;
`
	writeSourceFile(t, dir, "mixed.js", source)

	pipeline := newTestPipeline()
	req := domain.AnalyzeRequest{Paths: []string{dir}, Recursive: true}

	first, err := pipeline.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newTestPipeline().Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Findings) == 0 {
		t.Fatal("expected findings")
	}
	if len(first.Findings) != len(second.Findings) {
		t.Fatalf("re-running must yield the same findings: %d vs %d",
			len(first.Findings), len(second.Findings))
	}
	for i := range first.Findings {
		if first.Findings[i].ID != second.Findings[i].ID {
			t.Errorf("position %d differs between runs", i)
		}
	}
	for i := 1; i < len(first.Findings); i++ {
		if first.Findings[i].Severity > first.Findings[i-1].Severity {
			t.Error("findings must be ordered by severity descending")
		}
	}
}

func TestAnalyzeMinSeverityFilter(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "app.js", "let timeout = 5000;\n")

	pipeline := newTestPipeline()
	report, err := pipeline.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths:       []string{dir},
		Recursive:   true,
		MinSeverity: domain.SeverityHigh,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Findings) != 0 {
		t.Errorf("low-severity findings should be filtered, got %d", len(report.Findings))
	}
}

func TestAnalyzeUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "broken.js", "function {{{ nope ===")

	pipeline := newTestPipeline()
	report, err := pipeline.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths:     []string{dir},
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("a broken file must degrade, not abort: %v", err)
	}

	var parseFailed *domain.Finding
	for _, f := range report.Findings {
		if f.RuleID == constants.RuleParseFailed {
			parseFailed = f
		}
	}
	if parseFailed == nil {
		t.Fatal("expected a parse-failed finding")
	}
	if parseFailed.Severity != domain.SeverityLow {
		t.Errorf("parse failures are low severity, got %s", parseFailed.Severity)
	}
	if !report.Passed {
		t.Error("parse failures alone must not fail the gate")
	}
}

func TestAnalyzeMissingTargetAborts(t *testing.T) {
	pipeline := newTestPipeline()
	_, err := pipeline.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths: []string{"/definitely/not/here"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if pipeline.State() != domain.StateAborted {
		t.Errorf("expected aborted state, got %s", pipeline.State())
	}

	_, err = newTestPipeline().Analyze(context.Background(), domain.AnalyzeRequest{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty paths, got %v", err)
	}
}

func TestAnalyzeExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "keep.js", `const password = "admin123";`)
	writeSourceFile(t, dir, filepath.Join("skipme", "drop.js"), `const password = "admin123";`)

	pipeline := newTestPipeline()
	report, err := pipeline.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths:           []string{dir},
		Recursive:       true,
		ExcludePatterns: []string{"skipme"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Metadata.FilesAnalyzed != 1 {
		t.Errorf("excluded directory should be skipped, analyzed %d files", report.Metadata.FilesAnalyzed)
	}
	for _, f := range report.Findings {
		if filepath.Base(filepath.Dir(f.FilePath)) == "skipme" {
			t.Errorf("finding from excluded path: %s", f.FilePath)
		}
	}
}

func TestAnalyzeInterruptedScanRecordsDegradation(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "a.js", `const password = "admin123";`)
	writeSourceFile(t, dir, "b.js", "function add(a, b) { return a + b; }\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := newTestPipeline()
	report, err := pipeline.Analyze(ctx, domain.AnalyzeRequest{
		Paths:     []string{dir},
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("interrupted scan should still produce a report, got %v", err)
	}

	if report.Metadata.FilesAnalyzed != 0 {
		t.Errorf("no file was analyzed, metadata claims %d", report.Metadata.FilesAnalyzed)
	}
	found := false
	for _, d := range report.Metadata.Degradations {
		if d.Stage == constants.StageScanning {
			found = true
			if !strings.Contains(d.Reason, "2 of 2") {
				t.Errorf("degradation should name the dropped files, got %q", d.Reason)
			}
		}
	}
	if !found {
		t.Error("dropped files must be recorded as a scanning degradation")
	}
}

func TestAnalyzePersistsFindings(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "app.js", `const password = "admin123";`)

	repo := store.NewMemoryStore()
	pipeline := newTestPipeline(WithRepository(repo))
	report, err := pipeline.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths:     []string{dir},
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.Len() != len(report.Findings) {
		t.Errorf("expected %d stored findings, got %d", len(report.Findings), repo.Len())
	}
	if report.Metadata.PersistErrors != 0 {
		t.Errorf("expected no persist errors, got %d", report.Metadata.PersistErrors)
	}
}

func TestAnalyzeDedupDegradationRecorded(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "app.js", "let x = 5;\n")

	// capability flag on but no detector wired
	cfg := config.DefaultConfig()
	capabilities := NewStaticCapabilityResolver(map[string]bool{
		constants.CapabilitySemanticDedup: true,
	})
	pipeline := NewPipelineService(cfg, capabilities)

	report, err := pipeline.Analyze(context.Background(), domain.AnalyzeRequest{
		Paths:     []string{dir},
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, d := range report.Metadata.Degradations {
		if d.Stage == constants.StageDeduplicating {
			found = true
		}
	}
	if !found {
		t.Error("missing detector should be recorded as a deduplication degradation")
	}
}
