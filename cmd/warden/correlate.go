package main

import (
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
	correlateMessage    string
	correlateFile       string
	correlateSeverity   string
	correlateTime       string
	correlateConfigPath string
)

func correlateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Link a production alert to stored findings",
		Long: `Correlate an operational alert against findings recorded by earlier
scans. File references are extracted from the alert message, matched
against the finding store, and the best-scoring finding is reported with
its score breakdown.

Requires a configured finding store.

Examples:
  warden correlate -m "TypeError in src/api/users.js:42"
  warden correlate -m "payment service crashed" --file src/payments/charge.js
  warden correlate -m "OOM in worker" --time 2026-08-30T14:00:00Z`,
		RunE: runCorrelate,
	}

	cmd.Flags().StringVarP(&correlateMessage, "message", "m", "",
		"Alert message text")
	cmd.Flags().StringVar(&correlateFile, "file", "",
		"File path known to be involved in the alert")
	cmd.Flags().StringVar(&correlateSeverity, "severity", "",
		"Alert severity label (informational, recorded verbatim)")
	cmd.Flags().StringVar(&correlateTime, "time", "",
		"Alert timestamp in RFC 3339 (default now)")
	cmd.Flags().StringVarP(&correlateConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCorrelate(cmd *cobra.Command, args []string) error {
	loader := service.NewConfigurationLoader()
	var cfg *config.Config
	if correlateConfigPath != "" {
		loaded, err := loader.LoadConfig(correlateConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = loader.LoadDefaultConfig()
	}

	ctx := cmd.Context()

	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("correlation requires a finding store; set store.backend in the config")
	}

	alert := domain.Alert{
		Message:  correlateMessage,
		FilePath: correlateFile,
		Severity: correlateSeverity,
	}
	if correlateTime != "" {
		ts, err := time.Parse(time.RFC3339, correlateTime)
		if err != nil {
			return fmt.Errorf("invalid --time value: %w", err)
		}
		alert.Timestamp = ts
	}

	useCase := app.NewCorrelateUseCase(service.NewCorrelationService(repo, &cfg.Correlation))
	_, err = useCase.Execute(ctx, alert, os.Stdout)
	return err
}
