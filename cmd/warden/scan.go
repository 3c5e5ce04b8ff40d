package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/app"
	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/service"
)

var (
	scanFormat      string
	scanJSON        bool
	scanMinSeverity string
	scanExclude     []string
	scanNoRecursive bool
	scanConfigPath  string
	scanOutputPath  string
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Analyze JavaScript/TypeScript files for quality issues",
		Long: `Analyze JavaScript/TypeScript files for complexity, security issues,
code smells, and best practice violations. Findings are validated to
suppress false positives before they reach the report.

Examples:
  warden scan src/
  warden scan --min-severity medium src/
  warden scan --format sarif -o findings.sarif src/
  warden scan --json src/`,
		RunE: runScan,
	}

	cmd.Flags().StringVarP(&scanFormat, "format", "f", "",
		"Output format: text, json, yaml, sarif")
	cmd.Flags().BoolVar(&scanJSON, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().StringVar(&scanMinSeverity, "min-severity", "",
		"Minimum severity to report: info, low, medium, high, critical")
	cmd.Flags().StringSliceVarP(&scanExclude, "exclude", "e", nil,
		"Gitignore-style patterns to exclude")
	cmd.Flags().BoolVar(&scanNoRecursive, "no-recursive", false,
		"Don't descend into subdirectories")
	cmd.Flags().StringVarP(&scanConfigPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().StringVarP(&scanOutputPath, "output", "o", "",
		"Write the report to a file instead of stdout")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}

	loader := service.NewConfigurationLoader()
	var cfg *config.Config
	if scanConfigPath != "" {
		loaded, err := loader.LoadConfig(scanConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = loader.LoadDefaultConfig()
	}

	req, err := buildScanRequest(args, cfg, loader)
	if err != nil {
		return err
	}

	if scanOutputPath != "" {
		out, err := os.Create(scanOutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
		req.OutputWriter = out
	} else {
		req.OutputWriter = os.Stdout
	}

	ctx, cancel := contextWithConfigTimeout(cfg)
	defer cancel()

	pipeline, err := buildPipeline(ctx, cfg, true)
	if err != nil {
		return err
	}

	useCase, err := app.NewScanUseCaseBuilder().
		WithPipeline(pipeline).
		WithFormatter(service.NewOutputFormatter()).
		Build()
	if err != nil {
		return err
	}

	_, err = useCase.Execute(ctx, req)
	return err
}

func buildScanRequest(args []string, cfg *config.Config, loader *service.ConfigurationLoaderImpl) (domain.AnalyzeRequest, error) {
	req := domain.AnalyzeRequest{
		Paths:           args,
		Recursive:       !scanNoRecursive,
		ExcludePatterns: scanExclude,
		ConfigPath:      scanConfigPath,
	}

	if scanJSON {
		req.OutputFormat = domain.OutputFormatJSON
	} else if scanFormat != "" {
		req.OutputFormat = domain.OutputFormat(scanFormat)
	}

	loader.ApplyConfigToRequest(&req, cfg)

	// Explicit flags always beat config-file values. Applied after the
	// overlay so "--min-severity info" survives even though it matches
	// the overlay's unset sentinel.
	if scanMinSeverity != "" {
		sev, err := domain.ParseSeverity(scanMinSeverity)
		if err != nil {
			return req, err
		}
		req.MinSeverity = sev
	}
	return req, nil
}

func contextWithConfigTimeout(cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.Analysis.TimeoutSeconds > 0 {
		return context.WithTimeout(context.Background(), time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second)
	}
	return context.WithCancel(context.Background())
}
