package app

import (
	"context"
	"fmt"

	"github.com/wardenlabs/warden/domain"
)

// ScanUseCase orchestrates the analysis workflow from the CLI boundary:
// request validation, pipeline execution, and report rendering.
type ScanUseCase struct {
	pipeline   domain.PipelineService
	formatter  domain.OutputFormatter
	fileHelper *FileHelper
}

// NewScanUseCase creates a new scan use case
func NewScanUseCase(pipeline domain.PipelineService, formatter domain.OutputFormatter) *ScanUseCase {
	return &ScanUseCase{
		pipeline:   pipeline,
		formatter:  formatter,
		fileHelper: NewFileHelper(),
	}
}

// Execute runs the full scan workflow and writes the formatted report
func (uc *ScanUseCase) Execute(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalysisReport, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, err
	}

	report, err := uc.pipeline.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	if req.OutputWriter != nil {
		if err := uc.formatter.Write(report, req.OutputFormat, req.OutputWriter); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}
	return report, nil
}

func (uc *ScanUseCase) validateRequest(req domain.AnalyzeRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	for _, path := range req.Paths {
		exists, err := uc.fileHelper.PathExists(path)
		if err != nil {
			return fmt.Errorf("cannot access %s: %w", path, err)
		}
		if !exists {
			return fmt.Errorf("path does not exist: %s", path)
		}
	}
	// Info is a legal filter bound even though analyzers never emit it
	if req.MinSeverity < domain.SeverityInfo || req.MinSeverity > domain.SeverityCritical {
		return fmt.Errorf("invalid minimum severity: %d", req.MinSeverity)
	}
	return nil
}

// ScanUseCaseBuilder provides a builder pattern for creating ScanUseCase
type ScanUseCaseBuilder struct {
	pipeline   domain.PipelineService
	formatter  domain.OutputFormatter
	fileHelper *FileHelper
}

// NewScanUseCaseBuilder creates a new builder
func NewScanUseCaseBuilder() *ScanUseCaseBuilder {
	return &ScanUseCaseBuilder{}
}

// WithPipeline sets the pipeline service
func (b *ScanUseCaseBuilder) WithPipeline(pipeline domain.PipelineService) *ScanUseCaseBuilder {
	b.pipeline = pipeline
	return b
}

// WithFormatter sets the output formatter
func (b *ScanUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *ScanUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithFileHelper sets the file helper
func (b *ScanUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *ScanUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// Build creates the ScanUseCase with the configured dependencies
func (b *ScanUseCaseBuilder) Build() (*ScanUseCase, error) {
	if b.pipeline == nil {
		return nil, fmt.Errorf("pipeline service is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}

	uc := &ScanUseCase{
		pipeline:   b.pipeline,
		formatter:  b.formatter,
		fileHelper: b.fileHelper,
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}
	return uc, nil
}
