package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/warden/domain"
)

func storedFinding(id, path string, sev domain.Severity, status domain.Status, created time.Time) *domain.StoredFinding {
	return &domain.StoredFinding{
		ID:           id,
		FilePath:     path,
		Severity:     sev,
		SeverityRank: int(sev),
		Status:       status,
		CreatedAt:    created,
		RecordedAt:   created,
		UpdatedAt:    created,
	}
}

func TestSaveFindingIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	f := storedFinding("aaa", "src/db.js", domain.SeverityHigh, domain.StatusOpen, created)
	require.NoError(t, s.SaveFinding(ctx, f))
	require.NoError(t, s.SaveFinding(ctx, f))

	assert.Equal(t, 1, s.Len(), "repeated writes must not duplicate")

	got, ok := s.Get("aaa")
	require.True(t, ok)
	assert.Equal(t, created, got.CreatedAt, "created_at survives re-writes")
	assert.True(t, got.UpdatedAt.After(created), "updated_at bumps on re-write")
}

func TestQueryCandidatesFiltering(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alertTime := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	seed := []*domain.StoredFinding{
		storedFinding("match-high", "src/db.js", domain.SeverityHigh, domain.StatusOpen, alertTime.AddDate(0, 0, -3)),
		storedFinding("match-crit", "src/db.js", domain.SeverityCritical, domain.StatusIgnored, alertTime.AddDate(0, 0, -10)),
		storedFinding("wrong-path", "src/ui.js", domain.SeverityCritical, domain.StatusOpen, alertTime.AddDate(0, 0, -3)),
		storedFinding("too-low", "src/db.js", domain.SeverityMedium, domain.StatusOpen, alertTime.AddDate(0, 0, -3)),
		storedFinding("fixed", "src/db.js", domain.SeverityHigh, domain.StatusFixed, alertTime.AddDate(0, 0, -3)),
		storedFinding("too-old", "src/db.js", domain.SeverityHigh, domain.StatusOpen, alertTime.AddDate(0, 0, -120)),
		storedFinding("after-alert", "src/db.js", domain.SeverityHigh, domain.StatusOpen, alertTime.AddDate(0, 0, 1)),
	}
	for _, f := range seed {
		require.NoError(t, s.SaveFinding(ctx, f))
	}

	results, err := s.QueryCandidates(ctx, domain.CandidateQuery{
		FilePaths:       []string{"src/db.js"},
		AlertTime:       alertTime,
		LookbackDays:    90,
		MinSeverity:     domain.SeverityHigh,
		AllowedStatuses: []domain.Status{domain.StatusOpen, domain.StatusIgnored},
	})
	require.NoError(t, err)

	ids := make([]string, len(results))
	for i, f := range results {
		ids[i] = f.ID
	}
	assert.Equal(t, []string{"match-crit", "match-high"}, ids,
		"severity descending, then recency")
}

func TestQueryCandidatesEmptyStore(t *testing.T) {
	s := NewMemoryStore()
	results, err := s.QueryCandidates(context.Background(), domain.CandidateQuery{
		FilePaths:       []string{"src/db.js"},
		AlertTime:       time.Now(),
		LookbackDays:    90,
		MinSeverity:     domain.SeverityHigh,
		AllowedStatuses: []domain.Status{domain.StatusOpen},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
