package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wardenlabs/warden/domain"
)

// MemoryStore is an in-process FindingRepository with the same filtering
// and ordering semantics as the ArangoDB adapter
type MemoryStore struct {
	mu       sync.RWMutex
	findings map[string]*domain.StoredFinding
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{findings: make(map[string]*domain.StoredFinding)}
}

// SaveFinding upserts by finding id; a repeated write updates the record's
// update timestamp instead of duplicating it
func (s *MemoryStore) SaveFinding(_ context.Context, finding *domain.StoredFinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findings[finding.ID]; ok {
		existing.UpdatedAt = time.Now().UTC()
		return nil
	}
	copied := *finding
	s.findings[finding.ID] = &copied
	return nil
}

// QueryCandidates filters by path set, minimum severity, allowed statuses,
// and the alert-bounded time window, ordered severity descending then
// creation time descending
func (s *MemoryStore) QueryCandidates(_ context.Context, q domain.CandidateQuery) ([]*domain.StoredFinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make(map[string]bool, len(q.FilePaths))
	for _, p := range q.FilePaths {
		paths[p] = true
	}
	statuses := make(map[domain.Status]bool, len(q.AllowedStatuses))
	for _, st := range q.AllowedStatuses {
		statuses[st] = true
	}
	windowStart := q.AlertTime.AddDate(0, 0, -q.LookbackDays)

	var results []*domain.StoredFinding
	for _, f := range s.findings {
		if !paths[f.FilePath] {
			continue
		}
		if f.Severity < q.MinSeverity {
			continue
		}
		if !statuses[f.Status] {
			continue
		}
		if f.CreatedAt.After(q.AlertTime) || f.CreatedAt.Before(windowStart) {
			continue
		}
		results = append(results, f)
	}

	sort.Slice(results, func(a, b int) bool {
		if results[a].Severity != results[b].Severity {
			return results[a].Severity > results[b].Severity
		}
		if !results[a].CreatedAt.Equal(results[b].CreatedAt) {
			return results[a].CreatedAt.After(results[b].CreatedAt)
		}
		return results[a].ID < results[b].ID
	})
	return results, nil
}

// Len reports the number of stored findings
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.findings)
}

// Get returns a stored finding by id
func (s *MemoryStore) Get(id string) (*domain.StoredFinding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.findings[id]
	return f, ok
}
