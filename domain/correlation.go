package domain

import (
	"context"
	"time"
)

// Alert is an external operational alert to be correlated against
// previously stored findings
type Alert struct {
	Message   string    `json:"message"`
	FilePath  string    `json:"file_path,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CandidateQuery is the correlation query contract against the finding
// store. Path, severity-set, and time-range filtering happen at the query
// layer to keep result sets bounded.
type CandidateQuery struct {
	FilePaths       []string  `json:"file_paths"`
	AlertTime       time.Time `json:"alert_time"`
	LookbackDays    int       `json:"lookback_days"`
	MinSeverity     Severity  `json:"min_severity"`
	AllowedStatuses []Status  `json:"allowed_statuses"`
}

// ScoreBreakdown carries the correlation scoring factors for auditability
type ScoreBreakdown struct {
	SeverityWeight   float64 `json:"severity_weight"`
	StatusMultiplier float64 `json:"status_multiplier"`
	RecencyFactor    float64 `json:"recency_factor"`
}

// CorrelationRecord links an alert to zero-or-one finding via a computed
// relevance score. It is created on demand when an alert arrives and never
// retroactively recomputed.
type CorrelationRecord struct {
	Alert Alert `json:"alert"`

	// Finding is nil when no candidate scored above zero (an expected
	// outcome, not an error)
	Finding *StoredFinding `json:"finding,omitempty"`

	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`

	// ExtractedPaths are the file-path candidates pulled from the alert
	// message, in matcher order
	ExtractedPaths []string `json:"extracted_paths,omitempty"`

	// DaysBeforeAlert is the gap between the selected finding's creation
	// and the alert
	DaysBeforeAlert float64 `json:"days_before_alert,omitempty"`

	// Attempted is false when the store was unreachable; correlation
	// degrades gracefully and never blocks the alert-delivery path
	Attempted bool `json:"attempted"`

	CreatedAt time.Time `json:"created_at"`
}

// Correlated reports whether a finding was selected
func (r *CorrelationRecord) Correlated() bool {
	return r.Finding != nil
}

// CorrelationService scores operational alerts against stored findings.
// Correlate always produces a record; store failures are reflected in the
// record's Attempted flag rather than returned.
type CorrelationService interface {
	Correlate(ctx context.Context, alert Alert) *CorrelationRecord
}
