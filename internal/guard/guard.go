// Package guard is the admission-control and rate-limiting core that protects
// the shorts conversion backend. It decides per unit of work whether the work
// may proceed, and supplies the numbers callers need to tell a user when to
// retry. It performs no I/O of its own.
package guard

import (
	"context"
	"time"

	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
)

// Outcome classifies a guard decision.
type Outcome int

// Decision outcomes. A "no" is an expected, frequent branch, so decisions are
// structured results rather than errors.
const (
	OutcomeAllowed Outcome = iota
	OutcomeRateLimited
	OutcomeTemporarilyBlocked
	OutcomeConcurrencyExhausted
)

var outcomeNames = [...]string{
	OutcomeAllowed:              "allowed",
	OutcomeRateLimited:          "rate_limited",
	OutcomeTemporarilyBlocked:   "temporarily_blocked",
	OutcomeConcurrencyExhausted: "concurrency_exhausted",
}

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	if o < OutcomeAllowed || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Decision is the structured result of one guard check.
type Decision struct {
	Outcome   Outcome
	Limit     int
	Remaining int
	// Reset is when the rate window frees a slot; set for rate decisions.
	Reset time.Time
	// RetryAfter is how long the caller should wait; set for blocks and
	// derived from Reset for rate rejections.
	RetryAfter time.Duration
}

// Allowed reports whether the work may proceed.
func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllowed }

// Guard wires the block registry, rate limiter, abuse detector, and admission
// controller into one decision pipeline: block check, then rate check, then
// (for jobs) concurrency admission.
type Guard struct {
	limiter   *limits.RateLimiter
	blocks    *limits.BlockRegistry
	detector  *limits.AbuseDetector
	admission *limits.AdmissionController
	recorder  limits.Recorder
	nowFn     func() time.Time
}

// Options carries the collaborators for a Guard. Limiter, Blocks, and
// Admission are required; Detector and Recorder are optional.
type Options struct {
	Limiter   *limits.RateLimiter
	Blocks    *limits.BlockRegistry
	Detector  *limits.AbuseDetector
	Admission *limits.AdmissionController
	Recorder  limits.Recorder
	NowFn     func() time.Time
}

// New constructs a Guard. NowFn defaults to time.Now when nil.
func New(opts Options) *Guard {
	nowFn := opts.NowFn
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Guard{
		limiter:   opts.Limiter,
		blocks:    opts.Blocks,
		detector:  opts.Detector,
		admission: opts.Admission,
		recorder:  opts.Recorder,
		nowFn:     nowFn,
	}
}

// CheckRequest decides whether one request may proceed for the identity under
// the tier's limit for the category. A blocked identity is rejected before
// the rate window is consulted, so its window is never mutated while blocked.
func (g *Guard) CheckRequest(ctx context.Context, identity string, tier limits.Tier, category limits.Category) Decision {
	now := g.nowFn()
	decision := g.check(identity, tier, category, now)
	g.record(ctx, identity, category, decision, now)
	return decision
}

// AdmitJob decides whether a new job may start. The pipeline is block check,
// rate check, then concurrency admission; an admitted job occupies its slot
// until ReleaseJob or staleness reclamation.
func (g *Guard) AdmitJob(ctx context.Context, identity string, tier limits.Tier, category limits.Category, jobID string) Decision {
	now := g.nowFn()
	decision := g.check(identity, tier, category, now)
	if decision.Allowed() {
		if !g.admission.TryAdmit(identity, tier, jobID, now) {
			decision = Decision{
				Outcome:    OutcomeConcurrencyExhausted,
				Limit:      decision.Limit,
				Remaining:  decision.Remaining,
				RetryAfter: g.admission.StaleTTL(),
			}
		}
	}
	g.record(ctx, identity, category, decision, now)
	return decision
}

// ReleaseJob frees the concurrency slot for jobID. Idempotent; serves as the
// completion, failure, and cancellation signal.
func (g *Guard) ReleaseJob(jobID string) {
	g.admission.Release(jobID)
}

func (g *Guard) check(identity string, tier limits.Tier, category limits.Category, now time.Time) Decision {
	if blocked, left := g.blocks.IsBlocked(identity, now); blocked {
		return Decision{Outcome: OutcomeTemporarilyBlocked, RetryAfter: left}
	}

	result := g.limiter.Evaluate(identity, tier, category, now)
	if !result.Allowed {
		return Decision{
			Outcome:    OutcomeRateLimited,
			Limit:      result.Limit,
			Remaining:  0,
			Reset:      result.Reset,
			RetryAfter: result.Reset.Sub(now),
		}
	}

	// abuse rules run on allowed events only; the event that trips a rule is
	// still served, subsequent ones are blocked
	if g.detector != nil {
		g.detector.CheckAndMaybeBlock(identity, category, now)
	}

	return Decision{
		Outcome:   OutcomeAllowed,
		Limit:     result.Limit,
		Remaining: result.Remaining,
		Reset:     result.Reset,
	}
}

func (g *Guard) record(ctx context.Context, identity string, category limits.Category, decision Decision, now time.Time) {
	if g.recorder == nil {
		return
	}
	_ = g.recorder.Record(ctx, limits.DecisionEvent{
		Identity: identity,
		Category: category,
		Allowed:  decision.Allowed(),
		Outcome:  decision.Outcome.String(),
		At:       now,
	})
}

// ClearIdentity drops the identity's rate-limit state.
func (g *Guard) ClearIdentity(identity string) {
	g.limiter.ClearIdentity(identity)
}

// Unblock removes any abuse block for the identity.
func (g *Guard) Unblock(identity string) {
	g.blocks.Unblock(identity)
}

// SetTierLimit adjusts a tier's rate limit for a category at runtime.
func (g *Guard) SetTierLimit(tier limits.Tier, category limits.Category, limit int) error {
	return g.limiter.SetLimit(tier, category, limit)
}

// SetTierCaps adjusts a tier's concurrency caps at runtime.
func (g *Guard) SetTierCaps(tier limits.Tier, perIdentity, global int) error {
	return g.admission.SetCaps(tier, perIdentity, global)
}

// TierCaps returns a tier's current concurrency caps.
func (g *Guard) TierCaps(tier limits.Tier) (perIdentity, global int) {
	return g.admission.Caps(tier)
}

// Stats assembles the aggregate operator view. Recorder-derived sections are
// present only when the guard records to a memory-backed recorder.
func (g *Guard) Stats() limits.Stats {
	now := g.nowFn()
	stats := limits.Stats{
		ActiveIdentities:  g.limiter.ActiveIdentities(),
		BlockedIdentities: g.blocks.Count(now),
		InFlightByTier:    make(map[string]int),
	}
	for tier, count := range g.admission.InFlightByTier() {
		stats.InFlightByTier[tier.String()] = count
	}

	memory := memoryRecorder(g.recorder)
	if memory != nil {
		stats.Total = memory.Total()
		stats.ByCategory = make(map[string]limits.Counters)
		for category, counters := range memory.ByCategory() {
			stats.ByCategory[string(category)] = counters
		}
		stats.RecentActivity = memory.Buckets()
	}
	return stats
}

func memoryRecorder(r limits.Recorder) *limits.MemoryRecorder {
	switch rec := r.(type) {
	case *limits.MemoryRecorder:
		return rec
	case *limits.FallbackRecorder:
		return rec.Memory()
	default:
		return nil
	}
}
