package jobs

import (
	"context"

	"github.com/shortsforge/ShortsForgeGuard/internal/guard"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// PacedNotifier wraps a Notifier with an outbound pace cap so a flood of
// rejections cannot itself overwhelm the chat transport's send quota.
// Notices over the pace are dropped, not queued.
type PacedNotifier struct {
	next    Notifier
	limiter *rate.Limiter
}

// NewPacedNotifier constructs a PacedNotifier sending at most perSecond
// notices with the given burst.
func NewPacedNotifier(next Notifier, perSecond float64, burst int) *PacedNotifier {
	return &PacedNotifier{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// NotifyRejected implements Notifier.
func (n *PacedNotifier) NotifyRejected(ctx context.Context, job Job, decision guard.Decision) {
	if n == nil || n.next == nil {
		return
	}
	if !n.limiter.Allow() {
		log.WithField("identity", job.Identity).Debug("rejection notice dropped by pace cap")
		return
	}
	n.next.NotifyRejected(ctx, job, decision)
}
