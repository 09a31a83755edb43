package limits

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Janitor periodically prunes rate windows, expired blocks, and stale
// in-flight jobs so memory stays bounded. Sweep is the testable surface;
// Start only wires it to a ticker.
type Janitor struct {
	limiter   *RateLimiter
	blocks    *BlockRegistry
	admission *AdmissionController
	interval  time.Duration
	nowFn     func() time.Time
}

// NewJanitor constructs a Janitor sweeping at the given interval.
// nowFn defaults to time.Now when nil.
func NewJanitor(limiter *RateLimiter, blocks *BlockRegistry, admission *AdmissionController, interval time.Duration, nowFn func() time.Time) *Janitor {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Janitor{
		limiter:   limiter,
		blocks:    blocks,
		admission: admission,
		interval:  interval,
		nowFn:     nowFn,
	}
}

// Sweep runs one cleanup pass with the supplied timestamp.
func (j *Janitor) Sweep(now time.Time) {
	if j.limiter != nil {
		j.limiter.Sweep(now)
	}
	if j.blocks != nil {
		j.blocks.Sweep(now)
	}
	if j.admission != nil {
		j.admission.ReclaimStale(now)
	}
}

// Start launches a goroutine sweeping every interval until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	if j.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.Sweep(j.nowFn())
				log.Debug("janitor sweep completed")
			}
		}
	}()
}
