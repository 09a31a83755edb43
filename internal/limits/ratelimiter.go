package limits

import (
	"sync"
	"time"
)

// Category identifies an independent rate-limit dimension for one identity.
type Category string

// Request categories tracked independently per identity.
const (
	CategoryGeneral       Category = "general"
	CategoryCommand       Category = "command"
	CategoryFileUpload    Category = "file_upload"
	CategoryURLProcessing Category = "url_processing"
	CategoryUpload        Category = "upload"
	CategoryDownload      Category = "download"
	CategoryWebhook       Category = "webhook"
)

// RateResult describes the outcome of a rate limit evaluation.
type RateResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// ActivityView exposes the retained event history of an identity so abuse
// detection can inspect it without owning the windows.
type ActivityView interface {
	Activity(identity string, category Category, now time.Time, since time.Duration) (recent, total int)
}

type windowKey struct {
	identity string
	category Category
}

// RateLimiter enforces per-tier, per-category sliding-window rate limits.
// Every identity+category pair owns an independent event window.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limits  map[Tier]map[Category]int
	entries map[windowKey]*eventWindow
}

// NewRateLimiter constructs a RateLimiter with the given window length and
// per-tier per-category limits. Limit maps are copied.
func NewRateLimiter(window time.Duration, tierLimits map[Tier]map[Category]int) *RateLimiter {
	limits := make(map[Tier]map[Category]int, len(tierLimits))
	for tier, byCategory := range tierLimits {
		limits[tier] = make(map[Category]int, len(byCategory))
		for category, limit := range byCategory {
			limits[tier][category] = limit
		}
	}
	return &RateLimiter{
		window:  window,
		limits:  limits,
		entries: make(map[windowKey]*eventWindow),
	}
}

// Window returns the configured sliding window length.
func (l *RateLimiter) Window() time.Duration { return l.window }

// Limit returns the configured limit for a tier and category. An unknown tier
// or category falls back to the free tier so uncertainty under-privileges.
func (l *RateLimiter) Limit(tier Tier, category Category) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitLocked(tier, category)
}

func (l *RateLimiter) limitLocked(tier Tier, category Category) int {
	if !tier.Valid() {
		tier = TierFree
	}
	byCategory, ok := l.limits[tier]
	if !ok {
		byCategory = l.limits[TierFree]
	}
	if limit, okCat := byCategory[category]; okCat {
		return limit
	}
	if limit, okGeneral := byCategory[CategoryGeneral]; okGeneral {
		return limit
	}
	return 0
}

// Evaluate decides whether one more event is allowed for the identity under
// the tier's limit for the category. Allowed events are appended to the
// window; rejected events are not, so a throttled caller is not penalized
// twice.
func (l *RateLimiter) Evaluate(identity string, tier Tier, category Category, now time.Time) RateResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := l.limitLocked(tier, category)
	key := windowKey{identity: identity, category: category}
	w := l.entries[key]
	if w == nil {
		w = &eventWindow{}
		l.entries[key] = w
	}
	w.prune(now, l.window)

	if limit <= 0 {
		// zero limit means the category is shut for the tier
		return RateResult{Allowed: false, Limit: limit, Remaining: 0, Reset: now.Add(l.window)}
	}

	if w.size() >= limit {
		reset := now.Add(l.window)
		if first, ok := w.oldest(); ok {
			reset = first.Add(l.window)
		}
		return RateResult{Allowed: false, Limit: limit, Remaining: 0, Reset: reset}
	}

	w.add(now)
	reset := now.Add(l.window)
	if first, ok := w.oldest(); ok {
		reset = first.Add(l.window)
	}
	return RateResult{Allowed: true, Limit: limit, Remaining: limit - w.size(), Reset: reset}
}

// Activity implements ActivityView over the retained windows. It prunes the
// window first so counts honor the retention invariant.
func (l *RateLimiter) Activity(identity string, category Category, now time.Time, since time.Duration) (recent, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.entries[windowKey{identity: identity, category: category}]
	if w == nil {
		return 0, 0
	}
	w.prune(now, l.window)
	return w.countSince(now.Add(-since)), w.size()
}

// SetLimit adjusts one tier/category limit at runtime. Adjusting an unknown
// tier is a configuration error, not a silent fallback.
func (l *RateLimiter) SetLimit(tier Tier, category Category, limit int) error {
	if !tier.Valid() {
		return ErrUnknownTier
	}
	if limit < 0 {
		limit = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	byCategory := l.limits[tier]
	if byCategory == nil {
		byCategory = make(map[Category]int)
		l.limits[tier] = byCategory
	}
	byCategory[category] = limit
	return nil
}

// ClearIdentity drops every retained window for the identity.
func (l *RateLimiter) ClearIdentity(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.entries {
		if key.identity == identity {
			delete(l.entries, key)
		}
	}
}

// Sweep prunes every window and drops the empty ones, bounding memory growth.
func (l *RateLimiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.entries {
		w.prune(now, l.window)
		if w.size() == 0 {
			delete(l.entries, key)
		}
	}
}

// ActiveIdentities counts identities with at least one retained window.
func (l *RateLimiter) ActiveIdentities() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]struct{}, len(l.entries))
	for key := range l.entries {
		seen[key.identity] = struct{}{}
	}
	return len(seen)
}
