package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateTemplateRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".warden.toml")
	if err := os.WriteFile(path, []byte(GenerateTemplate(false)), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("generated template must load: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Complexity.MediumThreshold != defaults.Complexity.MediumThreshold {
		t.Errorf("template changed medium threshold: %d", cfg.Complexity.MediumThreshold)
	}
	if cfg.Validator.AcceptanceThreshold != defaults.Validator.AcceptanceThreshold {
		t.Errorf("template changed acceptance threshold: %v", cfg.Validator.AcceptanceThreshold)
	}
	if cfg.Store.Backend != "" {
		t.Errorf("template must not enable a store backend, got %q", cfg.Store.Backend)
	}
}

func TestGenerateTemplateMinimal(t *testing.T) {
	full := GenerateTemplate(false)
	minimal := GenerateTemplate(true)

	if len(minimal) >= len(full) {
		t.Error("minimal template should be shorter than the full one")
	}
	for _, section := range []string{"[complexity]", "[output]", "[analysis]"} {
		if !strings.Contains(minimal, section) {
			t.Errorf("minimal template missing %s", section)
		}
	}
	if strings.Contains(minimal, "[embedding]") {
		t.Error("minimal template should omit the embedding section")
	}
}
