package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/wardenlabs/warden/internal/constants"
)

// Default cyclomatic complexity boundaries. The convention is strict
// greater-than on the analyzer's count of decision nodes: a function with
// exactly 6 decision nodes (cyclomatic count 7) is medium, exactly 11 is
// high, exactly 21 is critical.
const (
	// DefaultMediumDecisionThreshold is the decision-node count above which
	// a function is reported at medium severity
	DefaultMediumDecisionThreshold = 5

	// DefaultHighDecisionThreshold is the decision-node count above which
	// a function is reported at high severity
	DefaultHighDecisionThreshold = 10

	// DefaultCriticalDecisionThreshold is the decision-node count above
	// which a function is reported at critical severity
	DefaultCriticalDecisionThreshold = 20
)

// Default structural smell thresholds
const (
	DefaultMaxFunctionLines = 50
	DefaultMaxParameters    = 5
	DefaultMaxNestingDepth  = 4
	DefaultMaxClassLines    = 500

	// DefaultDuplicateWindowTokens is the token-window size for duplicate
	// code block hashing
	DefaultDuplicateWindowTokens = 32
)

// Default validator settings
const (
	// DefaultAcceptanceThreshold is the confidence above which a finding
	// is considered valid
	DefaultAcceptanceThreshold = 0.5

	// DefaultSimilarityFloor and DefaultSimilarityCeiling bound the
	// "sweet spot" band for suggested-fix similarity
	DefaultSimilarityFloor   = 0.30
	DefaultSimilarityCeiling = 0.95
)

// Default semantic duplicate detection settings
const (
	// DefaultDuplicateSimilarity is the cosine similarity at or above
	// which two findings are linked as duplicates
	DefaultDuplicateSimilarity = 0.85
)

// Default correlation settings
const (
	// DefaultLookbackDays bounds how far back candidate findings are
	// fetched when correlating an alert
	DefaultLookbackDays = 90

	// DefaultRecencyFloor keeps borderline-old findings from scoring zero
	DefaultRecencyFloor = 0.1
)

// Config is the main configuration structure
type Config struct {
	Complexity  ComplexityConfig  `json:"complexity" mapstructure:"complexity" yaml:"complexity"`
	Smells      SmellsConfig      `json:"smells" mapstructure:"smells" yaml:"smells"`
	Validator   ValidatorConfig   `json:"validator" mapstructure:"validator" yaml:"validator"`
	Dedup       DedupConfig       `json:"dedup" mapstructure:"dedup" yaml:"dedup"`
	Correlation CorrelationConfig `json:"correlation" mapstructure:"correlation" yaml:"correlation"`
	Store       StoreConfig       `json:"store" mapstructure:"store" yaml:"store"`
	Cache       CacheConfig       `json:"cache" mapstructure:"cache" yaml:"cache"`
	Embedding   EmbeddingConfig   `json:"embedding" mapstructure:"embedding" yaml:"embedding"`
	Analysis    AnalysisConfig    `json:"analysis" mapstructure:"analysis" yaml:"analysis"`
	Output      OutputConfig      `json:"output" mapstructure:"output" yaml:"output"`
}

// ComplexityConfig holds cyclomatic complexity thresholds expressed as
// decision-node counts
type ComplexityConfig struct {
	MediumThreshold   int  `json:"mediumThreshold" mapstructure:"medium_threshold" yaml:"medium_threshold"`
	HighThreshold     int  `json:"highThreshold" mapstructure:"high_threshold" yaml:"high_threshold"`
	CriticalThreshold int  `json:"criticalThreshold" mapstructure:"critical_threshold" yaml:"critical_threshold"`
	Enabled           bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
}

// SmellsConfig holds structural smell thresholds
type SmellsConfig struct {
	MaxFunctionLines int  `json:"maxFunctionLines" mapstructure:"max_function_lines" yaml:"max_function_lines"`
	MaxParameters    int  `json:"maxParameters" mapstructure:"max_parameters" yaml:"max_parameters"`
	MaxNestingDepth  int  `json:"maxNestingDepth" mapstructure:"max_nesting_depth" yaml:"max_nesting_depth"`
	MaxClassLines    int  `json:"maxClassLines" mapstructure:"max_class_lines" yaml:"max_class_lines"`
	DuplicateWindow  int  `json:"duplicateWindow" mapstructure:"duplicate_window" yaml:"duplicate_window"`
	Enabled          bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
}

// ValidatorConfig holds false-positive validation settings
type ValidatorConfig struct {
	AcceptanceThreshold float64 `json:"acceptanceThreshold" mapstructure:"acceptance_threshold" yaml:"acceptance_threshold"`
	SimilarityFloor     float64 `json:"similarityFloor" mapstructure:"similarity_floor" yaml:"similarity_floor"`
	SimilarityCeiling   float64 `json:"similarityCeiling" mapstructure:"similarity_ceiling" yaml:"similarity_ceiling"`
}

// DedupConfig holds semantic duplicate detection settings
type DedupConfig struct {
	SimilarityThreshold float64 `json:"similarityThreshold" mapstructure:"similarity_threshold" yaml:"similarity_threshold"`

	// TimeoutSeconds bounds one embedding call; on expiry the stage is
	// skipped, not the run
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// CorrelationConfig holds alert correlation settings
type CorrelationConfig struct {
	LookbackDays int     `json:"lookbackDays" mapstructure:"lookback_days" yaml:"lookback_days"`
	RecencyFloor float64 `json:"recencyFloor" mapstructure:"recency_floor" yaml:"recency_floor"`
}

// StoreConfig selects and configures the finding store backend
type StoreConfig struct {
	// Backend is "arango" or empty to disable persistence
	Backend  string `json:"backend" mapstructure:"backend" yaml:"backend"`
	URL      string `json:"url" mapstructure:"url" yaml:"url"`
	Database string `json:"database" mapstructure:"database" yaml:"database"`
	User     string `json:"user" mapstructure:"user" yaml:"user"`
	Password string `json:"password" mapstructure:"password" yaml:"password"`

	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// CacheConfig configures the optional per-file finding cache
type CacheConfig struct {
	// URL is a Redis connection string; empty disables caching
	URL        string `json:"url" mapstructure:"url" yaml:"url"`
	TTLMinutes int    `json:"ttlMinutes" mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
}

// EmbeddingConfig configures the embedding provider and its request budget
type EmbeddingConfig struct {
	// Endpoint is the HTTP embedding service URL; empty means the
	// capability is absent
	Endpoint string `json:"endpoint" mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"apiKey" mapstructure:"api_key" yaml:"api_key"`

	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	// DailyBudget and MonthlyBudget cap provider calls; 0 means unlimited
	DailyBudget   int `json:"dailyBudget" mapstructure:"daily_budget" yaml:"daily_budget"`
	MonthlyBudget int `json:"monthlyBudget" mapstructure:"monthly_budget" yaml:"monthly_budget"`
}

// AnalysisConfig holds general analysis configuration
type AnalysisConfig struct {
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
	MaxGoroutines   int      `json:"maxGoroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`
	TimeoutSeconds  int      `json:"timeoutSeconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	// Capabilities maps capability names to their enabled state, normally
	// resolved from the caller's tier
	Capabilities map[string]bool `json:"capabilities" mapstructure:"capabilities" yaml:"capabilities"`
}

// OutputConfig holds output formatting configuration
type OutputConfig struct {
	Format       string `json:"format" mapstructure:"format" yaml:"format"`
	ShowDetails  bool   `json:"show_details" mapstructure:"show_details" yaml:"show_details"`
	MinSeverity  string `json:"min_severity" mapstructure:"min_severity" yaml:"min_severity"`
	FailSeverity string `json:"fail_severity" mapstructure:"fail_severity" yaml:"fail_severity"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Complexity: ComplexityConfig{
			MediumThreshold:   DefaultMediumDecisionThreshold,
			HighThreshold:     DefaultHighDecisionThreshold,
			CriticalThreshold: DefaultCriticalDecisionThreshold,
			Enabled:           true,
		},
		Smells: SmellsConfig{
			MaxFunctionLines: DefaultMaxFunctionLines,
			MaxParameters:    DefaultMaxParameters,
			MaxNestingDepth:  DefaultMaxNestingDepth,
			MaxClassLines:    DefaultMaxClassLines,
			DuplicateWindow:  DefaultDuplicateWindowTokens,
			Enabled:          true,
		},
		Validator: ValidatorConfig{
			AcceptanceThreshold: DefaultAcceptanceThreshold,
			SimilarityFloor:     DefaultSimilarityFloor,
			SimilarityCeiling:   DefaultSimilarityCeiling,
		},
		Dedup: DedupConfig{
			SimilarityThreshold: DefaultDuplicateSimilarity,
			TimeoutSeconds:      30,
		},
		Correlation: CorrelationConfig{
			LookbackDays: DefaultLookbackDays,
			RecencyFloor: DefaultRecencyFloor,
		},
		Store: StoreConfig{
			Database:       "warden",
			TimeoutSeconds: 10,
		},
		Cache: CacheConfig{
			TTLMinutes: 60,
		},
		Embedding: EmbeddingConfig{
			TimeoutSeconds: 30,
			DailyBudget:    1000,
			MonthlyBudget:  20000,
		},
		Analysis: AnalysisConfig{
			ExcludePatterns: []string{"node_modules", "dist", "build", ".git"},
			MaxGoroutines:   0,
			TimeoutSeconds:  300,
			Capabilities:    map[string]bool{},
		},
		Output: OutputConfig{
			Format:       "text",
			MinSeverity:  "low",
			FailSeverity: "critical",
		},
	}
}

// LoadConfig loads configuration from the given path, or defaults when the
// path is empty and no config file is discoverable
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration, discovering a config file
// relative to the analysis target when none is given explicitly
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

func loadConfigFromFile(configPath string) (*Config, error) {
	config := DefaultConfig()
	if configPath == "" {
		return config, nil
	}

	// A fresh viper instance avoids cross-run state
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// findDefaultConfig looks for a config file next to the target path, then
// in the working directory
func findDefaultConfig(targetPath string) string {
	candidates := []string{constants.ConfigFileName, "warden.toml", ".warden.yaml"}

	if targetPath != "" {
		dir := targetPath
		if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
			dir = filepath.Dir(targetPath)
		}
		if found := searchConfigInDirectory(dir, candidates); found != "" {
			return found
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		return searchConfigInDirectory(cwd, candidates)
	}
	return ""
}

func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	cx := c.Complexity
	if cx.MediumThreshold < 0 || cx.HighThreshold < 0 || cx.CriticalThreshold < 0 {
		return fmt.Errorf("complexity thresholds must be non-negative")
	}
	if cx.MediumThreshold >= cx.HighThreshold {
		return fmt.Errorf("complexity medium_threshold (%d) must be below high_threshold (%d)",
			cx.MediumThreshold, cx.HighThreshold)
	}
	if cx.HighThreshold >= cx.CriticalThreshold {
		return fmt.Errorf("complexity high_threshold (%d) must be below critical_threshold (%d)",
			cx.HighThreshold, cx.CriticalThreshold)
	}

	if t := c.Validator.AcceptanceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("validator acceptance_threshold must be in [0, 1], got %v", t)
	}
	if c.Validator.SimilarityFloor >= c.Validator.SimilarityCeiling {
		return fmt.Errorf("validator similarity_floor must be below similarity_ceiling")
	}

	if t := c.Dedup.SimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("dedup similarity_threshold must be in [0, 1], got %v", t)
	}

	if c.Correlation.LookbackDays <= 0 {
		return fmt.Errorf("correlation lookback_days must be positive")
	}

	switch c.Store.Backend {
	case "", "arango", "memory":
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	return nil
}
