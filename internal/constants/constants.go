package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "warden"

	// ToolURL is the project home reported in SARIF output
	ToolURL = "https://github.com/wardenlabs/warden"

	// ConfigFileName is the default config file name
	ConfigFileName = ".warden.toml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "WARDEN"
)

// Capability names consumed by the orchestrator's capability resolver
const (
	CapabilitySemanticDedup = "semantic-duplicate-detection"
)

// Pipeline stage names used in report metadata
const (
	StageScanning      = "scanning"
	StageValidating    = "validating"
	StageDeduplicating = "deduplicating"
	StageAggregating   = "aggregating"
)

// Rule identifiers emitted by the built-in analyzers
const (
	RuleParseFailed = "parse-failed"

	RuleHighComplexity = "high-complexity"

	RuleHardcodedSecret       = "hardcoded-secret"
	RuleDynamicEval           = "dynamic-eval"
	RuleUnsafeDeserialization = "unsafe-deserialization"
	RuleSQLStringConcat       = "sql-string-concat"
	RuleProductionAssert      = "production-assert"
	RuleEmptyCatch            = "empty-catch"

	RuleLongFunction      = "long-function"
	RuleTooManyParams     = "too-many-params"
	RuleDeepNesting       = "deep-nesting"
	RuleMagicNumber       = "magic-number"
	RuleDuplicateBlock    = "duplicate-block"
	RuleLargeClass        = "large-class"
	RuleTodoMarker        = "todo-marker"
	RuleCommentedOutCode  = "commented-out-code"

	RuleMissingDoc        = "missing-doc"
	RuleShortIdentifier   = "short-identifier"
	RuleNamingConvention  = "naming-convention"
)

// AnalyzerSetVersion participates in cache keys so that a rule change
// invalidates previously cached finding sets.
const AnalyzerSetVersion = "2025.08"

// Output format constants
const (
	OutputFormatText  = "text"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
	OutputFormatSARIF = "sarif"
)
