package service

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/logging"
)

// Reference extraction patterns. The leading boundary group keeps a
// pattern from matching the tail of a longer path claimed by an earlier
// matcher.
const srcExt = `\.(?:js|jsx|mjs|cjs|ts|tsx|mts|cts)`

var (
	pathLinePattern = regexp.MustCompile(`(?:^|[\s"'(\[])(/?(?:[\w.-]+/)*[\w.-]+` + srcExt + `):(\d+)`)
	absPathPattern  = regexp.MustCompile(`(?:^|[\s"'(\[])(/(?:[\w.-]+/)+[\w.-]+` + srcExt + `)`)
	relPathPattern  = regexp.MustCompile(`(?:^|[\s"'(\[])((?:[\w.-]+/)+[\w.-]+` + srcExt + `)`)
	dottedModule    = regexp.MustCompile(`\b([a-z][\w]*(?:\.[a-z][\w]*)+)\b`)
)

var severityWeights = map[domain.Severity]float64{
	domain.SeverityCritical: 4.0,
	domain.SeverityHigh:     3.0,
	domain.SeverityMedium:   2.0,
	domain.SeverityLow:      1.0,
	domain.SeverityInfo:     0.5,
}

// CorrelationService links production alerts back to previously recorded
// findings in the files the alert references.
type CorrelationService struct {
	repo   domain.FindingRepository
	cfg    *config.CorrelationConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewCorrelationService(repo domain.FindingRepository, cfg *config.CorrelationConfig) *CorrelationService {
	return &CorrelationService{
		repo:   repo,
		cfg:    cfg,
		logger: logging.Logger(),
		now:    time.Now,
	}
}

// Correlate matches an alert against stored findings. It never returns an
// error: a store outage or an alert with no usable references produces a
// record with Attempted or Finding unset, so callers always get an
// auditable outcome.
func (s *CorrelationService) Correlate(ctx context.Context, alert domain.Alert) *domain.CorrelationRecord {
	record := &domain.CorrelationRecord{
		Alert:     alert,
		Attempted: true,
		CreatedAt: s.now().UTC(),
	}

	paths := ExtractFileReferences(alert.Message)
	if alert.FilePath != "" {
		paths = appendUnique(paths, alert.FilePath)
	}
	record.ExtractedPaths = paths
	if len(paths) == 0 {
		return record
	}

	lookback := s.cfg.LookbackDays
	if lookback <= 0 {
		lookback = config.DefaultLookbackDays
	}

	candidates, err := s.repo.QueryCandidates(ctx, domain.CandidateQuery{
		FilePaths:       paths,
		AlertTime:       alert.Timestamp,
		LookbackDays:    lookback,
		MinSeverity:     domain.SeverityHigh,
		AllowedStatuses: []domain.Status{domain.StatusOpen, domain.StatusIgnored},
	})
	if err != nil {
		s.logger.Warn("correlation store unreachable", zap.Error(err))
		record.Attempted = false
		return record
	}

	var best *domain.StoredFinding
	var bestScore float64
	var bestBreakdown domain.ScoreBreakdown
	for _, c := range candidates {
		score, breakdown := s.score(c, alert.Timestamp, lookback)
		if best == nil || score > bestScore {
			best = c
			bestScore = score
			bestBreakdown = breakdown
		}
	}
	if best == nil {
		return record
	}

	record.Finding = best
	record.Score = bestScore
	record.Breakdown = bestBreakdown
	record.DaysBeforeAlert = daysBetween(best.CreatedAt, alert.Timestamp)
	return record
}

// score ranks a candidate. An ignored finding that later pages someone is
// evidence the triage call was wrong, hence the doubled multiplier.
func (s *CorrelationService) score(f *domain.StoredFinding, alertTime time.Time, lookbackDays int) (float64, domain.ScoreBreakdown) {
	weight := severityWeights[f.Severity]

	statusMultiplier := 1.0
	if f.Status == domain.StatusIgnored {
		statusMultiplier = 2.0
	}

	floor := s.cfg.RecencyFloor
	if floor <= 0 {
		floor = config.DefaultRecencyFloor
	}
	days := daysBetween(f.CreatedAt, alertTime)
	recency := math.Max(floor, 1.0-days/float64(lookbackDays))

	breakdown := domain.ScoreBreakdown{
		SeverityWeight:   weight,
		StatusMultiplier: statusMultiplier,
		RecencyFactor:    recency,
	}
	return weight * statusMultiplier * recency, breakdown
}

func daysBetween(earlier, later time.Time) float64 {
	return later.Sub(earlier).Hours() / 24
}

// referenceMatchers run in a fixed order: absolute paths, relative paths,
// path:line, then dotted module names mapped back to a path guess.
var referenceMatchers = []func(string) []string{
	matchAbsolutePaths,
	matchRelativePaths,
	matchPathsWithLine,
	matchDottedModules,
}

// ExtractFileReferences pulls source file references out of free-form alert
// text. The first matcher that yields anything is terminal: weaker pattern
// guesses never dilute an already-resolved reference, so the same message
// always selects the same candidate set.
func ExtractFileReferences(message string) []string {
	for _, match := range referenceMatchers {
		if paths := match(message); len(paths) > 0 {
			return paths
		}
	}
	return nil
}

func matchAbsolutePaths(message string) []string {
	var paths []string
	for _, groups := range absPathPattern.FindAllStringSubmatch(message, -1) {
		paths = appendUnique(paths, groups[1])
	}
	return paths
}

func matchRelativePaths(message string) []string {
	var paths []string
	for _, groups := range relPathPattern.FindAllStringSubmatch(message, -1) {
		paths = appendUnique(paths, groups[1])
	}
	return paths
}

func matchPathsWithLine(message string) []string {
	var paths []string
	for _, groups := range pathLinePattern.FindAllStringSubmatch(message, -1) {
		if _, err := strconv.Atoi(groups[2]); err == nil {
			paths = appendUnique(paths, groups[1])
		}
	}
	return paths
}

func matchDottedModules(message string) []string {
	var paths []string
	for _, groups := range dottedModule.FindAllStringSubmatch(message, -1) {
		mod := groups[1]
		if strings.Contains(mod, "/") || looksLikeFile(mod) {
			continue
		}
		paths = appendUnique(paths, strings.ReplaceAll(mod, ".", "/")+".js")
	}
	return paths
}

func looksLikeFile(s string) bool {
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}

func appendUnique(paths []string, p string) []string {
	for _, existing := range paths {
		if existing == p {
			return paths
		}
	}
	return append(paths, p)
}
