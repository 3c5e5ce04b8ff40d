package service

import (
	"fmt"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
)

// ConfigurationLoaderImpl implements configuration loading for the CLI
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path, or discovers the
// nearest config file when path is empty
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig discovers a config file upward from the working
// directory, falling back to built-in defaults
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *config.Config {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err == nil && cfg.Validate() == nil {
		return cfg
	}
	return config.DefaultConfig()
}

// ApplyConfigToRequest overlays config-file output settings onto a request
// where the request leaves them unset
func (c *ConfigurationLoaderImpl) ApplyConfigToRequest(req *domain.AnalyzeRequest, cfg *config.Config) {
	if req.OutputFormat == "" {
		req.OutputFormat = domain.OutputFormat(cfg.Output.Format)
	}
	if req.MinSeverity == domain.SeverityInfo {
		if sev, err := domain.ParseSeverity(cfg.Output.MinSeverity); err == nil {
			req.MinSeverity = sev
		}
	}
	if req.FailThreshold == domain.SeverityInfo {
		if sev, err := domain.ParseSeverity(cfg.Output.FailSeverity); err == nil {
			req.FailThreshold = sev
		}
	}
	if len(req.ExcludePatterns) == 0 {
		req.ExcludePatterns = cfg.Analysis.ExcludePatterns
	}
}
