package embed

import (
	"errors"
	"sync"
	"time"
)

// ErrBudgetExceeded signals that the daily or monthly request ceiling was
// reached. The orchestrator treats it as "Phase 1 unavailable", never as a
// fatal error.
var ErrBudgetExceeded = errors.New("embedding request budget exceeded")

// Governor enforces daily and monthly call ceilings on the embedding
// provider. Counters reset lazily when the day or month rolls over.
type Governor struct {
	mu sync.Mutex

	dailyLimit   int
	monthlyLimit int

	dailyCount   int
	monthlyCount int

	day   string
	month string

	now func() time.Time
}

// NewGovernor creates a governor; a limit of 0 means unlimited for that
// window
func NewGovernor(dailyLimit, monthlyLimit int) *Governor {
	return &Governor{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		now:          time.Now,
	}
}

// Allow consumes one call from the budget, or returns ErrBudgetExceeded
// once a ceiling is reached
func (g *Governor) Allow() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")

	if g.day != day {
		g.day = day
		g.dailyCount = 0
	}
	if g.month != month {
		g.month = month
		g.monthlyCount = 0
	}

	if g.dailyLimit > 0 && g.dailyCount >= g.dailyLimit {
		return ErrBudgetExceeded
	}
	if g.monthlyLimit > 0 && g.monthlyCount >= g.monthlyLimit {
		return ErrBudgetExceeded
	}

	g.dailyCount++
	g.monthlyCount++
	return nil
}

// Usage reports the current counters, mainly for diagnostics
func (g *Governor) Usage() (daily, monthly int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dailyCount, g.monthlyCount
}
