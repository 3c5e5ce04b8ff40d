package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
)

// Default values for the parallel executor
const (
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 5 * time.Minute
)

// FileTask is one unit of per-file analysis work. Tasks own their file's
// syntax tree and finding list; nothing is shared across workers.
type FileTask struct {
	Path string
	Run  func(ctx context.Context) ([]*domain.Finding, error)
}

// TaskError represents a single task failure
type TaskError struct {
	TaskName string
	Err      error
}

// Error implements the error interface
func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

// Unwrap returns the underlying error
func (e TaskError) Unwrap() error {
	return e.Err
}

// AggregatedError collects all task failures
type AggregatedError struct {
	Errors []TaskError
}

// Error implements the error interface
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d tasks failed:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap returns the first error for errors.Is/As compatibility
func (e *AggregatedError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0].Err
}

// FileResult pairs a task's findings with its path so results can be merged
// deterministically after all workers finish
type FileResult struct {
	Path     string
	Findings []*domain.Finding
}

// ParallelExecutor fans per-file tasks out to a bounded worker pool.
// Cancellation is cooperative and honored at file boundaries only; a file
// scan in flight always runs to completion.
type ParallelExecutor struct {
	maxConcurrency int
	timeout        time.Duration
	progress       domain.ProgressManager
	mu             sync.RWMutex
}

// NewParallelExecutor creates an executor sized to the machine
func NewParallelExecutor() *ParallelExecutor {
	return &ParallelExecutor{
		maxConcurrency: runtime.NumCPU(),
		timeout:        DefaultTimeout,
	}
}

// NewParallelExecutorFromConfig creates an executor from configuration
func NewParallelExecutorFromConfig(cfg *config.AnalysisConfig) *ParallelExecutor {
	maxConcurrency := cfg.MaxGoroutines
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &ParallelExecutor{
		maxConcurrency: maxConcurrency,
		timeout:        timeout,
	}
}

// WithProgress attaches a progress manager
func (e *ParallelExecutor) WithProgress(pm domain.ProgressManager) *ParallelExecutor {
	e.progress = pm
	return e
}

// Execute runs the tasks and returns results keyed by file path, plus an
// aggregated error listing every task that failed. Per-file failures never
// cancel sibling tasks.
func (e *ParallelExecutor) Execute(ctx context.Context, tasks []FileTask) (map[string]FileResult, error) {
	results := make(map[string]FileResult, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	e.mu.RLock()
	maxConcurrency := e.maxConcurrency
	timeout := e.timeout
	e.mu.RUnlock()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if e.progress != nil {
		task = e.progress.StartTask("Analyzing files", len(tasks))
	}
	defer task.Complete()

	g, gCtx := errgroup.WithContext(timeoutCtx)
	g.SetLimit(maxConcurrency)

	var resultMu sync.Mutex
	var taskErrors []TaskError

	for _, t := range tasks {
		g.Go(func() error {
			// cooperative cancellation, checked between files; a task the
			// deadline prevented from running is recorded as failed, not
			// silently dropped
			select {
			case <-gCtx.Done():
				resultMu.Lock()
				taskErrors = append(taskErrors, TaskError{TaskName: t.Path, Err: gCtx.Err()})
				resultMu.Unlock()
				return nil
			default:
			}

			findings, err := t.Run(gCtx)
			task.Increment(1)

			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				taskErrors = append(taskErrors, TaskError{TaskName: t.Path, Err: err})
				return nil
			}
			results[t.Path] = FileResult{Path: t.Path, Findings: findings}

			// Errors are collected, not returned, so sibling tasks finish
			return nil
		})
	}

	// Workers never return errors; every failure, including batch-timeout
	// skips, lives in taskErrors
	_ = g.Wait()

	if len(taskErrors) > 0 {
		return results, &AggregatedError{Errors: taskErrors}
	}
	return results, nil
}

// SetMaxConcurrency sets the maximum number of concurrent tasks
func (e *ParallelExecutor) SetMaxConcurrency(max int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if max > 0 {
		e.maxConcurrency = max
	}
}

// SetTimeout sets the timeout for the whole task batch
func (e *ParallelExecutor) SetTimeout(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timeout > 0 {
		e.timeout = timeout
	}
}
