package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/analyzer"
	"github.com/wardenlabs/warden/internal/cache"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/logging"
	"github.com/wardenlabs/warden/internal/parser"
	"github.com/wardenlabs/warden/internal/version"
)

// ErrInvalidInput marks unrecoverable input errors: the run aborts instead
// of producing a report
var ErrInvalidInput = errors.New("invalid input")

var sourceExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}

// PipelineService sequences scanning, validation, optional semantic
// deduplication, and aggregation over a set of files, and owns the
// process-level pass/fail decision.
type PipelineService struct {
	cfg          *config.Config
	validator    *analyzer.FindingValidator
	detector     *analyzer.DuplicateDetector
	capabilities domain.CapabilityResolver
	repo         domain.FindingRepository
	findingCache domain.FindingCache
	executor     *ParallelExecutor
	logger       *zap.Logger

	mu    sync.Mutex
	state domain.RunState
}

// PipelineOption configures optional collaborators
type PipelineOption func(*PipelineService)

// WithRepository attaches the finding store; findings are persisted once
// per finding at the aggregation step
func WithRepository(repo domain.FindingRepository) PipelineOption {
	return func(p *PipelineService) { p.repo = repo }
}

// WithCache attaches the per-file finding cache
func WithCache(c domain.FindingCache) PipelineOption {
	return func(p *PipelineService) { p.findingCache = c }
}

// WithDuplicateDetector attaches the Phase 1 semantic duplicate detector
func WithDuplicateDetector(d *analyzer.DuplicateDetector) PipelineOption {
	return func(p *PipelineService) { p.detector = d }
}

// WithExecutor overrides the default parallel executor
func WithExecutor(e *ParallelExecutor) PipelineOption {
	return func(p *PipelineService) { p.executor = e }
}

// NewPipelineService wires the pipeline from configuration
func NewPipelineService(cfg *config.Config, capabilities domain.CapabilityResolver, opts ...PipelineOption) *PipelineService {
	p := &PipelineService{
		cfg:          cfg,
		validator:    analyzer.NewFindingValidator(&cfg.Validator),
		capabilities: capabilities,
		executor:     NewParallelExecutorFromConfig(&cfg.Analysis),
		logger:       logging.Logger(),
		state:        domain.StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the orchestrator's current run state
func (p *PipelineService) State() domain.RunState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *PipelineService) setState(s domain.RunState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Analyze runs the full pipeline. Capability flags are resolved once here;
// stages that are off are skipped entirely rather than run and discarded.
func (p *PipelineService) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalysisReport, error) {
	startTime := time.Now()
	now := startTime.UTC()

	metadata := domain.ReportMetadata{
		RunID:       uuid.NewString(),
		GeneratedAt: now,
		Version:     version.GetVersion(),
	}

	dedupEnabled := p.detector != nil &&
		p.capabilities.IsEnabled(constants.CapabilitySemanticDedup)
	if !dedupEnabled {
		metadata.Degradations = append(metadata.Degradations, domain.Degradation{
			Stage:  constants.StageDeduplicating,
			Reason: "semantic duplicate detection capability not enabled",
		})
	}

	files, err := p.collectFiles(req)
	if err != nil {
		p.setState(domain.StateAborted)
		return nil, err
	}

	// Scanning + per-finding validation run inside the worker pool; each
	// worker owns its file's tree and finding list
	p.setState(domain.StateScanning)
	validations := &sync.Map{}
	cacheHits := 0
	var cacheMu sync.Mutex

	tasks := make([]FileTask, 0, len(files))
	for _, file := range files {
		tasks = append(tasks, FileTask{
			Path: file,
			Run: func(taskCtx context.Context) ([]*domain.Finding, error) {
				findings, fromCache := p.analyzeFile(taskCtx, file, now, validations)
				if fromCache {
					cacheMu.Lock()
					cacheHits++
					cacheMu.Unlock()
				}
				return findings, nil
			},
		})
	}

	results, execErr := p.executor.Execute(ctx, tasks)
	if execErr != nil {
		var aggregated *AggregatedError
		if errors.As(execErr, &aggregated) {
			for _, taskErr := range aggregated.Errors {
				p.logger.Warn("file analysis failed", zap.String("file", taskErr.TaskName), zap.Error(taskErr.Err))
			}
			metadata.Degradations = append(metadata.Degradations, domain.Degradation{
				Stage:  constants.StageScanning,
				Reason: fmt.Sprintf("%d of %d files not analyzed", len(files)-len(results), len(files)),
			})
		} else {
			return nil, execErr
		}
	}
	metadata.CacheHits = cacheHits
	metadata.FilesAnalyzed = len(results)

	p.setState(domain.StateValidating)
	var findings []*domain.Finding
	for _, result := range results {
		for _, f := range result.Findings {
			if !f.Severity.IsValid() {
				p.logger.Error("analyzer emitted out-of-range severity",
					zap.String("finding", f.ID), zap.Int("severity", int(f.Severity)))
				continue
			}
			if f.Severity >= req.MinSeverity {
				findings = append(findings, f)
			}
		}
	}

	if dedupEnabled && len(findings) > 1 {
		p.setState(domain.StateDeduplicating)
		findings = p.deduplicate(ctx, findings, &metadata)
	}

	p.setState(domain.StateAggregating)
	report := p.aggregate(ctx, req, findings, validations, &metadata, startTime)

	p.setState(domain.StateDone)
	return report, nil
}

// analyzeFile scans one file. Unreadable or unparseable files yield a
// single low-severity diagnostic finding, never an aborted run.
func (p *PipelineService) analyzeFile(ctx context.Context, path string, now time.Time, validations *sync.Map) ([]*domain.Finding, bool) {
	source, err := os.ReadFile(path)
	if err != nil {
		return []*domain.Finding{parseFailedFinding(path, fmt.Sprintf("file unreadable: %v", err), now)}, false
	}

	cacheKey := ""
	if p.findingCache != nil {
		cacheKey = cache.Key(path, source)
		if cached, hit, cacheErr := p.findingCache.Get(ctx, cacheKey); cacheErr == nil && hit {
			return cached, true
		}
	}

	tree, err := parser.ParseForLanguage(ctx, path, source)
	if err != nil {
		return []*domain.Finding{parseFailedFinding(path, fmt.Sprintf("parse failed: %v", err), now)}, false
	}

	file := &analyzer.SourceFile{Path: path, Source: source, Tree: tree}
	var raw []*domain.Finding
	for _, a := range p.analyzers() {
		raw = append(raw, a.Scan(file, now)...)
	}

	// Phase 0: findings may be dropped or annotated here, never mutated in
	// meaning
	var validated []*domain.Finding
	for _, f := range raw {
		result := p.validator.Validate(f, string(source))
		if !result.Valid {
			continue
		}
		validations.Store(f.ID, result)
		validated = append(validated, f)
	}

	if p.findingCache != nil && cacheKey != "" {
		ttl := time.Duration(p.cfg.Cache.TTLMinutes) * time.Minute
		if err := p.findingCache.Set(ctx, cacheKey, validated, ttl); err != nil {
			p.logger.Debug("cache write failed", zap.String("file", path), zap.Error(err))
		}
	}
	return validated, false
}

// analyzers builds the per-run analyzer set; analyzers are stateless values
// constructed fresh so no mutable state crosses files or runs
func (p *PipelineService) analyzers() []analyzer.Analyzer {
	var set []analyzer.Analyzer
	if p.cfg.Complexity.Enabled {
		set = append(set, analyzer.NewComplexityAnalyzer(&p.cfg.Complexity))
	}
	set = append(set, analyzer.NewSecurityAnalyzer())
	if p.cfg.Smells.Enabled {
		set = append(set, analyzer.NewSmellsAnalyzer(&p.cfg.Smells))
	}
	set = append(set, analyzer.NewBestPracticeAnalyzer())
	return set
}

// deduplicate runs Phase 1 under its own timeout; any failure degrades the
// stage and leaves the findings unlinked
func (p *PipelineService) deduplicate(ctx context.Context, findings []*domain.Finding, metadata *domain.ReportMetadata) []*domain.Finding {
	timeout := time.Duration(p.cfg.Dedup.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dedupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deduped, err := p.detector.Deduplicate(dedupCtx, findings)
	if err != nil {
		p.logger.Warn("semantic deduplication degraded", zap.Error(err))
		metadata.Degradations = append(metadata.Degradations, domain.Degradation{
			Stage:  constants.StageDeduplicating,
			Reason: err.Error(),
		})
		return findings
	}
	return deduped
}

// aggregate orders findings deterministically, computes counts excluding
// duplicates, decides pass/fail, and persists findings to the store
func (p *PipelineService) aggregate(ctx context.Context, req domain.AnalyzeRequest, findings []*domain.Finding,
	validations *sync.Map, metadata *domain.ReportMetadata, startTime time.Time) *domain.AnalysisReport {

	// deterministic ordering: severity descending, then file path, then
	// line, then rule id as the final tie-break
	sort.Slice(findings, func(a, b int) bool {
		fa, fb := findings[a], findings[b]
		if fa.Severity != fb.Severity {
			return fa.Severity > fb.Severity
		}
		if fa.FilePath != fb.FilePath {
			return fa.FilePath < fb.FilePath
		}
		if fa.Line != fb.Line {
			return fa.Line < fb.Line
		}
		return fa.RuleID < fb.RuleID
	})

	severityCounts := map[string]int{}
	categoryCounts := map[string]int{}
	duplicates := 0
	passed := true

	failThreshold := req.FailThreshold
	if failThreshold == 0 {
		failThreshold = domain.SeverityCritical
	}

	for _, f := range findings {
		if f.IsDuplicate() {
			// duplicates stay in the report but are excluded from the
			// pass/fail severity count
			duplicates++
			continue
		}
		severityCounts[f.Severity.String()]++
		categoryCounts[string(f.Category)]++
		if f.Severity >= failThreshold {
			passed = false
		}
	}

	persistErrors := 0
	if p.repo != nil {
		storeTime := time.Now().UTC()
		for _, f := range findings {
			if err := p.repo.SaveFinding(ctx, f.ToStored(storeTime)); err != nil {
				persistErrors++
				p.logger.Warn("finding persistence failed", zap.String("finding", f.ID), zap.Error(err))
			}
		}
		if persistErrors > 0 {
			metadata.PersistErrors = persistErrors
			metadata.Degradations = append(metadata.Degradations, domain.Degradation{
				Stage:  constants.StageAggregating,
				Reason: fmt.Sprintf("%d finding(s) could not be persisted", persistErrors),
			})
		}
	}

	validationMap := map[string]*domain.ValidationResult{}
	for _, f := range findings {
		if v, ok := validations.Load(f.ID); ok {
			validationMap[f.ID] = v.(*domain.ValidationResult)
		}
	}

	return &domain.AnalysisReport{
		Findings:       findings,
		Validations:    validationMap,
		SeverityCounts: severityCounts,
		CategoryCounts: categoryCounts,
		DuplicateCount: duplicates,
		DurationMS:     time.Since(startTime).Milliseconds(),
		Passed:         passed,
		Metadata:       *metadata,
	}
}

// collectFiles resolves target paths to analyzable source files, applying
// gitignore-style exclusions. A missing top-level target aborts the run.
func (p *PipelineService) collectFiles(req domain.AnalyzeRequest) ([]string, error) {
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("%w: no paths specified", ErrInvalidInput)
	}

	patterns := append([]string{}, p.cfg.Analysis.ExcludePatterns...)
	patterns = append(patterns, req.ExcludePatterns...)
	matcher := ignore.CompileIgnoreLines(patterns...)

	var files []string
	for _, target := range req.Paths {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("%w: target path %s does not exist", ErrInvalidInput, target)
		}

		if !info.IsDir() {
			if isSourceFile(target) && !matcher.MatchesPath(target) {
				files = append(files, target)
			}
			continue
		}

		walkErr := filepath.Walk(target, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				if path != target && matcher.MatchesPath(fi.Name()) {
					return filepath.SkipDir
				}
				if !req.Recursive && path != target {
					return filepath.SkipDir
				}
				return nil
			}
			if isSourceFile(path) && !matcher.MatchesPath(path) {
				files = append(files, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", target, walkErr)
		}
	}

	sort.Strings(files)
	return files, nil
}

func isSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range sourceExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

func parseFailedFinding(path, reason string, now time.Time) *domain.Finding {
	return &domain.Finding{
		ID:          domain.FindingID(path, 0, constants.RuleParseFailed),
		FilePath:    path,
		Line:        0,
		Category:    domain.CategorySmell,
		Severity:    domain.SeverityLow,
		Description: reason,
		RuleID:      constants.RuleParseFailed,
		CreatedAt:   now,
		Status:      domain.StatusOpen,
	}
}
