package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/version"
	"github.com/wardenlabs/warden/service"
)

// CheckExitError carries the process exit code for the check command
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkFailOn      string
	checkMinSeverity string
	checkJSON        bool
	checkVerbose     bool
	checkConfigPath  string
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Fast quality gate for CI/CD pipelines",
		Long: `Run the analysis pipeline as a pass/fail gate.

Exit codes:
  0 - No finding at or above the fail threshold
  1 - Quality threshold violated
  2 - Analysis error (file not found, invalid config, etc.)

Examples:
  # Fail the build on any critical finding
  warden check src/

  # Stricter gate
  warden check --fail-on high src/

  # JSON output for machine parsing
  warden check --json src/`,
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().StringVar(&checkFailOn, "fail-on", "",
		"Severity at or above which the check fails (default critical)")
	cmd.Flags().StringVar(&checkMinSeverity, "min-severity", "",
		"Minimum severity to report")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Show every finding, not just the summary")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: 2, Message: "no paths specified"}
	}

	startTime := time.Now()

	loader := service.NewConfigurationLoader()
	var cfg *config.Config
	if checkConfigPath != "" {
		loaded, err := loader.LoadConfig(checkConfigPath)
		if err != nil {
			return &CheckExitError{Code: 2, Message: err.Error()}
		}
		cfg = loaded
	} else {
		cfg = loader.LoadDefaultConfig()
	}

	req := domain.AnalyzeRequest{
		Paths:      args,
		Recursive:  true,
		ConfigPath: checkConfigPath,
	}
	loader.ApplyConfigToRequest(&req, cfg)

	// flags beat config-file values
	if checkMinSeverity != "" {
		sev, err := domain.ParseSeverity(checkMinSeverity)
		if err != nil {
			return &CheckExitError{Code: 2, Message: err.Error()}
		}
		req.MinSeverity = sev
	}
	if checkFailOn != "" {
		sev, err := domain.ParseSeverity(checkFailOn)
		if err != nil {
			return &CheckExitError{Code: 2, Message: err.Error()}
		}
		req.FailThreshold = sev
	}

	ctx, cancel := contextWithConfigTimeout(cfg)
	defer cancel()

	pipeline, err := buildPipeline(ctx, cfg, false)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	report, err := pipeline.Analyze(ctx, req)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	if err := writeCheckResult(os.Stdout, report, startTime); err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	if !report.Passed {
		return &CheckExitError{Code: 1}
	}
	return nil
}

// checkResultJSON is the machine-readable check summary
type checkResultJSON struct {
	Version        string         `json:"version"`
	Passed         bool           `json:"passed"`
	DurationMs     int64          `json:"duration_ms"`
	FilesAnalyzed  int            `json:"files_analyzed"`
	SeverityCounts map[string]int `json:"severity_counts"`
	DuplicateCount int            `json:"duplicate_count"`
	RunID          string         `json:"run_id"`
}

func writeCheckResult(w io.Writer, report *domain.AnalysisReport, startTime time.Time) error {
	if checkJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(checkResultJSON{
			Version:        version.GetVersion(),
			Passed:         report.Passed,
			DurationMs:     time.Since(startTime).Milliseconds(),
			FilesAnalyzed:  report.Metadata.FilesAnalyzed,
			SeverityCounts: report.SeverityCounts,
			DuplicateCount: report.DuplicateCount,
			RunID:          report.Metadata.RunID,
		})
	}

	if checkVerbose {
		formatter := service.NewOutputFormatter()
		if err := formatter.Write(report, domain.OutputFormatText, w); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "checked %d files in %dms: %d finding(s)\n",
			report.Metadata.FilesAnalyzed, time.Since(startTime).Milliseconds(), len(report.Findings))
		for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow} {
			if n := report.SeverityCounts[sev.String()]; n > 0 {
				fmt.Fprintf(w, "  %s: %d\n", sev.String(), n)
			}
		}
		if report.Passed {
			fmt.Fprintln(w, "PASS")
		} else {
			fmt.Fprintln(w, "FAIL")
		}
	}
	return nil
}
