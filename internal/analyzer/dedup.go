package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
)

// DuplicateDetector links semantically equivalent findings within one run
// using embeddings from an injected provider. Embeddings are transient:
// computed, compared, then discarded, never persisted.
type DuplicateDetector struct {
	provider  domain.EmbeddingProvider
	threshold float64
}

// NewDuplicateDetector creates a detector. A nil provider is the supported
// "capability absent" mode: Deduplicate then returns its input unchanged.
func NewDuplicateDetector(provider domain.EmbeddingProvider, cfg *config.DedupConfig) *DuplicateDetector {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = config.DefaultDuplicateSimilarity
	}
	return &DuplicateDetector{provider: provider, threshold: threshold}
}

// Deduplicate marks near-duplicate findings. The earliest-created finding
// of each linked group stays canonical; ties fall back to the smaller id so
// repeated runs link identically. Duplicates are retained, only marked.
func (d *DuplicateDetector) Deduplicate(ctx context.Context, findings []*domain.Finding) ([]*domain.Finding, error) {
	if d.provider == nil || len(findings) < 2 {
		return findings, nil
	}

	// Only findings with a snippet participate
	var candidates []*domain.Finding
	for _, f := range findings {
		if f.CodeSnippet != "" {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) < 2 {
		return findings, nil
	}

	fragments := make([]string, len(candidates))
	for i, f := range candidates {
		fragments[i] = f.CodeSnippet
	}

	vectors, err := d.provider.Embed(ctx, fragments)
	if err != nil {
		return findings, fmt.Errorf("embedding provider failed: %w", err)
	}
	if len(vectors) != len(candidates) {
		return findings, fmt.Errorf("embedding provider returned %d vectors for %d fragments",
			len(vectors), len(candidates))
	}

	// Canonical-first ordering: earliest creation wins, id breaks ties
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := candidates[order[a]], candidates[order[b]]
		if !fa.CreatedAt.Equal(fb.CreatedAt) {
			return fa.CreatedAt.Before(fb.CreatedAt)
		}
		return fa.ID < fb.ID
	})

	// O(n^2) pairwise comparison; a single run holds hundreds of findings
	// at most
	for ai := 0; ai < len(order); ai++ {
		canonical := candidates[order[ai]]
		if canonical.IsDuplicate() {
			continue
		}
		for bi := ai + 1; bi < len(order); bi++ {
			other := candidates[order[bi]]
			if other.IsDuplicate() {
				continue
			}
			if CosineSimilarity(vectors[order[ai]], vectors[order[bi]]) >= d.threshold {
				other.DuplicateOf = canonical.ID
			}
		}
	}

	return findings, nil
}
