package main

import (
	"testing"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/service"
)

func resetScanFlags() {
	scanFormat = ""
	scanJSON = false
	scanMinSeverity = ""
	scanExclude = nil
	scanNoRecursive = false
	scanConfigPath = ""
	scanOutputPath = ""
}

func TestBuildScanRequestMinSeverityPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		configured string
		want       domain.Severity
	}{
		{"flag beats config", "high", "low", domain.SeverityHigh},
		{"explicit info survives config default", "info", "low", domain.SeverityInfo},
		{"config applies when flag unset", "", "medium", domain.SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetScanFlags()
			t.Cleanup(resetScanFlags)
			scanMinSeverity = tt.flag

			cfg := config.DefaultConfig()
			cfg.Output.MinSeverity = tt.configured

			req, err := buildScanRequest([]string{"src"}, cfg, service.NewConfigurationLoader())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.MinSeverity != tt.want {
				t.Errorf("MinSeverity = %v, want %v", req.MinSeverity, tt.want)
			}
		})
	}
}

func TestBuildScanRequestRejectsUnknownSeverity(t *testing.T) {
	resetScanFlags()
	t.Cleanup(resetScanFlags)
	scanMinSeverity = "urgent"

	if _, err := buildScanRequest([]string{"src"}, config.DefaultConfig(), service.NewConfigurationLoader()); err == nil {
		t.Error("expected error for unknown severity name")
	}
}
