// Package lockout enforces a temporary lock after repeated failed attempts.
//
// Counters are keyed by an identifier. The login flow uses a single
// system-wide identifier, so failures from any account add up.
package lockout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/clock"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/repositories/lockouts"
)

const (
	DefaultIdentifier = "login"
	DefaultThreshold  = 5
	DefaultDuration   = 30 * time.Second

	// bound on compare-and-swap retries when clearing an expired lock
	maxResetRetries = 3
)

// Status is the result of Check.
type Status struct {
	Locked           bool
	SecondsRemaining int
}

// Guard tracks failures through a lockouts.Repository. All counter updates
// are single-statement upserts, so several processes may share a database.
type Guard struct {
	repo      lockouts.Repository
	clock     clock.Clock
	threshold int
	duration  time.Duration
}

type Option func(*Guard)

func WithThreshold(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.threshold = n
		}
	}
}

func WithDuration(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.duration = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(g *Guard) { g.clock = c }
}

func NewGuard(repo lockouts.Repository, opts ...Option) *Guard {
	g := &Guard{
		repo:      repo,
		clock:     clock.Real(),
		threshold: DefaultThreshold,
		duration:  DefaultDuration,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Guard) Threshold() int { return g.threshold }

// Check reports whether identifier is locked. An expired lock is cleared on
// the spot; checking never counts as an attempt.
func (g *Guard) Check(ctx context.Context, identifier string) (Status, error) {
	for range maxResetRetries {
		rec, err := g.repo.Get(ctx, identifier)
		if err != nil {
			return Status{}, fmt.Errorf("lockout check: %w", err)
		}
		if rec.LockedUntil == nil {
			return Status{}, nil
		}

		now := g.clock.Now()
		if now.Before(*rec.LockedUntil) {
			remaining := rec.LockedUntil.Sub(now)
			return Status{Locked: true, SecondsRemaining: int(math.Ceil(remaining.Seconds()))}, nil
		}

		// expired: clear only if no failure was recorded since we read it
		ok, err := g.repo.ResetIfUnchanged(ctx, identifier, rec.FailCount)
		if err != nil {
			return Status{}, fmt.Errorf("lockout reset: %w", err)
		}
		if ok {
			return Status{}, nil
		}
	}
	// counter keeps moving under us; the lock has expired either way
	return Status{}, nil
}

// RecordFailure adds one failure and returns the updated record.
func (g *Guard) RecordFailure(ctx context.Context, identifier string) (*models.Lockout, error) {
	rec, err := g.repo.RecordFailure(ctx, identifier, g.threshold, g.clock.Now().Add(g.duration))
	if err != nil {
		return nil, fmt.Errorf("lockout record failure: %w", err)
	}
	return rec, nil
}

// Reset clears the record for identifier.
func (g *Guard) Reset(ctx context.Context, identifier string) error {
	if err := g.repo.Reset(ctx, identifier); err != nil {
		return fmt.Errorf("lockout reset: %w", err)
	}
	return nil
}

// AttemptsLeft is how many more failures rec can absorb before locking.
func (g *Guard) AttemptsLeft(rec *models.Lockout) int {
	left := g.threshold - rec.FailCount
	if left < 0 {
		return 0
	}
	return left
}
