package config

import (
	"fmt"
	"strings"
)

// GenerateTemplate renders a documented TOML configuration file seeded with
// the default thresholds. When minimal is true only the sections most users
// tune are emitted.
func GenerateTemplate(minimal bool) string {
	defaults := DefaultConfig()
	var sb strings.Builder

	sb.WriteString("# warden configuration\n")
	sb.WriteString("# All values shown are the defaults; delete anything you do not change.\n\n")

	sb.WriteString("[complexity]\n")
	sb.WriteString("# Decision-node counts above which a function is flagged.\n")
	fmt.Fprintf(&sb, "medium_threshold = %d\n", defaults.Complexity.MediumThreshold)
	fmt.Fprintf(&sb, "high_threshold = %d\n", defaults.Complexity.HighThreshold)
	fmt.Fprintf(&sb, "critical_threshold = %d\n", defaults.Complexity.CriticalThreshold)
	sb.WriteString("enabled = true\n\n")

	sb.WriteString("[smells]\n")
	fmt.Fprintf(&sb, "max_function_lines = %d\n", defaults.Smells.MaxFunctionLines)
	fmt.Fprintf(&sb, "max_parameters = %d\n", defaults.Smells.MaxParameters)
	fmt.Fprintf(&sb, "max_nesting_depth = %d\n", defaults.Smells.MaxNestingDepth)
	fmt.Fprintf(&sb, "max_class_lines = %d\n", defaults.Smells.MaxClassLines)
	sb.WriteString("enabled = true\n\n")

	sb.WriteString("[analysis]\n")
	sb.WriteString("# Patterns use gitignore syntax; directory names match anywhere.\n")
	sb.WriteString("exclude_patterns = [\"node_modules\", \"dist\", \"build\", \".git\"]\n")
	fmt.Fprintf(&sb, "timeout_seconds = %d\n\n", defaults.Analysis.TimeoutSeconds)

	sb.WriteString("[output]\n")
	sb.WriteString("# text, json, yaml or sarif\n")
	fmt.Fprintf(&sb, "format = %q\n", defaults.Output.Format)
	fmt.Fprintf(&sb, "min_severity = %q\n", defaults.Output.MinSeverity)
	fmt.Fprintf(&sb, "fail_severity = %q\n", defaults.Output.FailSeverity)

	if minimal {
		return sb.String()
	}

	sb.WriteString("\n[validator]\n")
	sb.WriteString("# Findings scoring below acceptance_threshold are discarded as\n")
	sb.WriteString("# probable false positives.\n")
	fmt.Fprintf(&sb, "acceptance_threshold = %v\n", defaults.Validator.AcceptanceThreshold)
	fmt.Fprintf(&sb, "similarity_floor = %v\n", defaults.Validator.SimilarityFloor)
	fmt.Fprintf(&sb, "similarity_ceiling = %v\n\n", defaults.Validator.SimilarityCeiling)

	sb.WriteString("[dedup]\n")
	fmt.Fprintf(&sb, "similarity_threshold = %v\n", defaults.Dedup.SimilarityThreshold)
	fmt.Fprintf(&sb, "timeout_seconds = %d\n\n", defaults.Dedup.TimeoutSeconds)

	sb.WriteString("[correlation]\n")
	fmt.Fprintf(&sb, "lookback_days = %d\n", defaults.Correlation.LookbackDays)
	fmt.Fprintf(&sb, "recency_floor = %v\n\n", defaults.Correlation.RecencyFloor)

	sb.WriteString("[store]\n")
	sb.WriteString("# backend: \"arango\" to persist findings, empty to disable\n")
	sb.WriteString("backend = \"\"\n")
	sb.WriteString("url = \"http://localhost:8529\"\n")
	fmt.Fprintf(&sb, "database = %q\n\n", defaults.Store.Database)

	sb.WriteString("[cache]\n")
	sb.WriteString("# url: a Redis connection string, e.g. \"redis://localhost:6379/0\"\n")
	sb.WriteString("url = \"\"\n")
	fmt.Fprintf(&sb, "ttl_minutes = %d\n\n", defaults.Cache.TTLMinutes)

	sb.WriteString("[embedding]\n")
	sb.WriteString("# endpoint: HTTP embedding service; empty disables semantic dedup\n")
	sb.WriteString("endpoint = \"\"\n")
	fmt.Fprintf(&sb, "daily_budget = %d\n", defaults.Embedding.DailyBudget)
	fmt.Fprintf(&sb, "monthly_budget = %d\n", defaults.Embedding.MonthlyBudget)

	return sb.String()
}
