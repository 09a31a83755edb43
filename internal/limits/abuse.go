package limits

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// BlockRegistry tracks temporarily blocked identities. An identity is blocked
// iff now - blockStart < window; expired entries are deleted lazily on lookup
// or by Sweep.
type BlockRegistry struct {
	mu     sync.Mutex
	window time.Duration
	blocks map[string]time.Time // identity -> block start
}

// NewBlockRegistry constructs a BlockRegistry with the given block duration.
func NewBlockRegistry(window time.Duration) *BlockRegistry {
	return &BlockRegistry{
		window: window,
		blocks: make(map[string]time.Time),
	}
}

// Window returns the configured block duration.
func (r *BlockRegistry) Window() time.Duration { return r.window }

// Block records a block starting at now. An identity already blocked keeps
// its original expiry; repeat offenses do not compound.
func (r *BlockRegistry) Block(identity string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if start, ok := r.blocks[identity]; ok && now.Sub(start) < r.window {
		return
	}
	r.blocks[identity] = now
}

// IsBlocked reports whether the identity is blocked and how long remains.
// Expired entries are removed on lookup.
func (r *BlockRegistry) IsBlocked(identity string, now time.Time) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start, ok := r.blocks[identity]
	if !ok {
		return false, 0
	}
	elapsed := now.Sub(start)
	if elapsed >= r.window {
		delete(r.blocks, identity)
		return false, 0
	}
	return true, r.window - elapsed
}

// Unblock removes any block for the identity.
func (r *BlockRegistry) Unblock(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocks, identity)
}

// Sweep drops expired block entries.
func (r *BlockRegistry) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for identity, start := range r.blocks {
		if now.Sub(start) >= r.window {
			delete(r.blocks, identity)
		}
	}
}

// Count returns the number of identities currently blocked.
func (r *BlockRegistry) Count(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, start := range r.blocks {
		if now.Sub(start) < r.window {
			count++
		}
	}
	return count
}

// AbuseDetector classifies rapid-fire and burst patterns in an identity's
// retained event history and requests temporary blocks.
type AbuseDetector struct {
	view   ActivityView
	blocks *BlockRegistry

	rapidFireWindow    time.Duration
	rapidFireThreshold int
	burstThreshold     int
}

// NewAbuseDetector constructs an AbuseDetector over the given activity view
// and block registry.
func NewAbuseDetector(view ActivityView, blocks *BlockRegistry, rapidFireWindow time.Duration, rapidFireThreshold, burstThreshold int) *AbuseDetector {
	return &AbuseDetector{
		view:               view,
		blocks:             blocks,
		rapidFireWindow:    rapidFireWindow,
		rapidFireThreshold: rapidFireThreshold,
		burstThreshold:     burstThreshold,
	}
}

// CheckAndMaybeBlock inspects the identity's event history for the category
// and blocks the identity when a rapid-fire or burst pattern triggers.
// Returns whether a block is now in effect.
func (d *AbuseDetector) CheckAndMaybeBlock(identity string, category Category, now time.Time) bool {
	if d == nil || d.view == nil || d.blocks == nil {
		return false
	}
	recent, total := d.view.Activity(identity, category, now, d.rapidFireWindow)

	rule := ""
	switch {
	case d.rapidFireThreshold > 0 && recent >= d.rapidFireThreshold:
		rule = "rapid_fire"
	case d.burstThreshold > 0 && total >= d.burstThreshold:
		rule = "burst"
	default:
		return false
	}

	d.blocks.Block(identity, now)
	log.WithField("identity", identity).
		WithField("category", string(category)).
		WithField("rule", rule).
		Warn("abuse detected, identity temporarily blocked")
	return true
}
