package limits

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// InFlightJob represents one admitted, currently running unit of work.
type InFlightJob struct {
	ID        string
	Identity  string
	Tier      Tier
	StartedAt time.Time
}

// AdmissionController caps how many jobs one identity and each tier as a
// whole may run at once, and reclaims slots whose holders never reported
// completion. The in-flight job map and the derived per-identity and per-tier
// counters are always mutated under the same critical section so they cannot
// drift.
type AdmissionController struct {
	mu sync.Mutex

	perIdentityCaps map[Tier]int
	globalCaps      map[Tier]int
	staleTTL        time.Duration

	jobs       map[string]InFlightJob
	byIdentity map[string]int
	byTier     map[Tier]int
}

// NewAdmissionController constructs an AdmissionController with per-identity
// and per-tier global caps and the stale-job TTL. Cap maps are copied.
func NewAdmissionController(perIdentityCaps, globalCaps map[Tier]int, staleTTL time.Duration) *AdmissionController {
	perIdentity := make(map[Tier]int, len(perIdentityCaps))
	for tier, limit := range perIdentityCaps {
		perIdentity[tier] = limit
	}
	global := make(map[Tier]int, len(globalCaps))
	for tier, limit := range globalCaps {
		global[tier] = limit
	}
	return &AdmissionController{
		perIdentityCaps: perIdentity,
		globalCaps:      global,
		staleTTL:        staleTTL,
		jobs:            make(map[string]InFlightJob),
		byIdentity:      make(map[string]int),
		byTier:          make(map[Tier]int),
	}
}

// StaleTTL returns the age past which an unreleased job is reclaimed.
func (c *AdmissionController) StaleTTL() time.Duration { return c.staleTTL }

func capFor(caps map[Tier]int, tier Tier) int {
	if !tier.Valid() {
		tier = TierFree
	}
	if limit, ok := caps[tier]; ok {
		return limit
	}
	return caps[TierFree]
}

// TryAdmit decides whether a new job may start for the identity. On success
// the job is recorded in flight and both counters are incremented atomically.
// A job ID already in flight is rejected; finished IDs must not be reused.
func (c *AdmissionController) TryAdmit(identity string, tier Tier, jobID string, now time.Time) bool {
	if jobID == "" {
		return false
	}
	if !tier.Valid() {
		tier = TierFree
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.jobs[jobID]; exists {
		return false
	}
	if c.byIdentity[identity] >= capFor(c.perIdentityCaps, tier) {
		return false
	}
	if c.byTier[tier] >= capFor(c.globalCaps, tier) {
		return false
	}

	c.jobs[jobID] = InFlightJob{ID: jobID, Identity: identity, Tier: tier, StartedAt: now}
	c.byIdentity[identity]++
	c.byTier[tier]++
	return true
}

// Release frees the slot held by jobID. It is idempotent: releasing an
// unknown or already released job is a no-op, and counters never go below
// zero even if a completion report races a staleness reclaim.
func (c *AdmissionController) Release(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(jobID)
}

func (c *AdmissionController) releaseLocked(jobID string) {
	job, ok := c.jobs[jobID]
	if !ok {
		return
	}
	delete(c.jobs, jobID)

	if c.byIdentity[job.Identity] > 0 {
		c.byIdentity[job.Identity]--
	}
	if c.byIdentity[job.Identity] == 0 {
		delete(c.byIdentity, job.Identity)
	}
	if c.byTier[job.Tier] > 0 {
		c.byTier[job.Tier]--
	}
}

// ReclaimStale releases every job older than the stale TTL, treating its
// executor as crashed without reporting. Returns the number reclaimed.
func (c *AdmissionController) ReclaimStale(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	reclaimed := 0
	for jobID, job := range c.jobs {
		if now.Sub(job.StartedAt) > c.staleTTL {
			c.releaseLocked(jobID)
			reclaimed++
		}
	}
	if reclaimed > 0 {
		log.WithField("count", reclaimed).Warn("reclaimed stale in-flight jobs")
	}
	return reclaimed
}

// InFlight returns the identity's current in-flight count.
func (c *AdmissionController) InFlight(identity string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byIdentity[identity]
}

// InFlightByTier returns a copy of the per-tier global in-flight counts.
func (c *AdmissionController) InFlightByTier() map[Tier]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Tier]int, len(c.byTier))
	for tier, count := range c.byTier {
		out[tier] = count
	}
	return out
}

// Caps returns the tier's current per-identity and global caps.
func (c *AdmissionController) Caps(tier Tier) (perIdentity, global int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return capFor(c.perIdentityCaps, tier), capFor(c.globalCaps, tier)
}

// SetCaps adjusts a tier's per-identity and global caps at runtime.
// An unknown tier is a configuration error.
func (c *AdmissionController) SetCaps(tier Tier, perIdentity, global int) error {
	if !tier.Valid() {
		return ErrUnknownTier
	}
	if perIdentity < 0 {
		perIdentity = 0
	}
	if global < 0 {
		global = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perIdentityCaps[tier] = perIdentity
	c.globalCaps[tier] = global
	return nil
}
