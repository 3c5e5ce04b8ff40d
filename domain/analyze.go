package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
	OutputFormatSARIF OutputFormat = "sarif"
)

// RunState tracks the orchestrator's progress through one invocation
type RunState string

const (
	StateIdle          RunState = "idle"
	StateScanning      RunState = "scanning"
	StateValidating    RunState = "validating"
	StateDeduplicating RunState = "deduplicating"
	StateAggregating   RunState = "aggregating"
	StateDone          RunState = "done"

	// StateAborted is entered only on unrecoverable input errors, e.g. a
	// missing top-level target path
	StateAborted RunState = "aborted"
)

// AnalyzeRequest describes one analysis run
type AnalyzeRequest struct {
	// Input files or directories to analyze
	Paths []string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer

	// MinSeverity filters findings below this severity out of the report
	MinSeverity Severity

	// FailThreshold is the severity at or above which a retained
	// (non-duplicate) finding fails the run
	FailThreshold Severity

	// ExcludePatterns are gitignore-style path exclusions
	ExcludePatterns []string

	// Recursive controls directory traversal
	Recursive bool

	// ConfigPath optionally points at a config file
	ConfigPath string
}

// Degradation records a stage that ran in reduced form or not at all.
// Degradations are visible in report metadata, never escalated to failures.
type Degradation struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// ReportMetadata carries run bookkeeping and degradation records so that a
// "fewer checks ran" report is distinguishable from a fully clean one
type ReportMetadata struct {
	RunID         string        `json:"run_id"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Version       string        `json:"version"`
	FilesAnalyzed int           `json:"files_analyzed"`
	CacheHits     int           `json:"cache_hits"`
	Degradations  []Degradation `json:"degradations,omitempty"`
	PersistErrors int           `json:"persist_errors,omitempty"`
}

// AnalysisReport is the immutable aggregate of one run
type AnalysisReport struct {
	// Findings is deduplicated and deterministically ordered: severity
	// descending, then file path, then line
	Findings []*Finding `json:"findings"`

	// Validations holds the validator verdicts for retained findings,
	// keyed by finding id
	Validations map[string]*ValidationResult `json:"validations,omitempty"`

	// SeverityCounts excludes duplicate-marked findings so one underlying
	// issue is not double counted
	SeverityCounts map[string]int `json:"severity_counts"`
	CategoryCounts map[string]int `json:"category_counts"`

	DuplicateCount int `json:"duplicate_count"`

	DurationMS int64 `json:"duration_ms"`

	// Passed is false only when a retained finding meets the fail threshold
	Passed bool `json:"passed"`

	Metadata ReportMetadata `json:"metadata"`
}

// TotalFindings returns the number of findings including duplicates
func (r *AnalysisReport) TotalFindings() int {
	return len(r.Findings)
}

// PipelineService runs the full analysis pipeline over a set of paths
type PipelineService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisReport, error)
}

// EmbeddingProvider computes fixed-dimension embeddings for code fragments.
// It is an injected capability; the semantic duplicate detector treats an
// absent provider as a supported mode, not a failure.
type EmbeddingProvider interface {
	Name() string
	Embed(ctx context.Context, fragments []string) ([][]float64, error)
}

// CapabilityResolver reports whether a named optional capability is enabled
// for the caller's tier. The engine never inspects licensing internals.
type CapabilityResolver interface {
	IsEnabled(capability string) bool
}

// FindingRepository is the abstract store the pipeline appends findings to
// and the correlation engine queries. Writes are idempotent keyed by the
// finding's deterministic identifier.
type FindingRepository interface {
	SaveFinding(ctx context.Context, finding *StoredFinding) error
	QueryCandidates(ctx context.Context, query CandidateQuery) ([]*StoredFinding, error)
}

// FindingCache is the optional TTL-bound cache of per-file finding sets,
// keyed by a content hash of (path + contents + analyzer-set version).
type FindingCache interface {
	Get(ctx context.Context, key string) ([]*Finding, bool, error)
	Set(ctx context.Context, key string, findings []*Finding, ttl time.Duration) error
}

// OutputFormatter renders an analysis report in a given format
type OutputFormatter interface {
	Write(report *AnalysisReport, format OutputFormat, writer io.Writer) error
}

// ProgressManager manages progress display for long-running operations
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks progress of a single task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}
