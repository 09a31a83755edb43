package limits

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DecisionEvent records one guard decision for aggregate statistics.
type DecisionEvent struct {
	Identity string
	Category Category
	Allowed  bool
	Outcome  string
	At       time.Time
}

// Recorder is the persistence strategy for decision statistics. Recording is
// best effort; callers must not fail a request on a recorder error.
type Recorder interface {
	Record(ctx context.Context, ev DecisionEvent) error
}

// Counters accumulates allowed and denied decision counts.
type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// MinuteBucket is one minute of decision activity.
type MinuteBucket struct {
	Minute   string   `json:"minute"`
	Counters Counters `json:"counters"`
}

// retainedMinutes bounds how much per-minute history the memory recorder keeps.
const retainedMinutes = 60

// MemoryRecorder keeps decision statistics in memory with per-minute buckets.
type MemoryRecorder struct {
	mu         sync.Mutex
	total      Counters
	byCategory map[Category]Counters
	byMinute   map[string]Counters
}

// NewMemoryRecorder constructs a MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		byCategory: make(map[Category]Counters),
		byMinute:   make(map[string]Counters),
	}
}

const minuteLayout = "200601021504"

// Record implements Recorder.
func (r *MemoryRecorder) Record(_ context.Context, ev DecisionEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	minute := at.UTC().Format(minuteLayout)

	r.mu.Lock()
	defer r.mu.Unlock()

	bump := func(c Counters) Counters {
		if ev.Allowed {
			c.Allowed++
		} else {
			c.Denied++
		}
		return c
	}
	r.total = bump(r.total)
	r.byCategory[ev.Category] = bump(r.byCategory[ev.Category])
	r.byMinute[minute] = bump(r.byMinute[minute])

	if len(r.byMinute) > retainedMinutes {
		cutoff := at.UTC().Add(-retainedMinutes * time.Minute).Format(minuteLayout)
		for key := range r.byMinute {
			if key < cutoff {
				delete(r.byMinute, key)
			}
		}
	}
	return nil
}

// Total returns the cumulative counters.
func (r *MemoryRecorder) Total() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// ByCategory returns a copy of the per-category counters.
func (r *MemoryRecorder) ByCategory() map[Category]Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Category]Counters, len(r.byCategory))
	for category, counters := range r.byCategory {
		out[category] = counters
	}
	return out
}

// Buckets returns the retained per-minute activity, oldest first.
func (r *MemoryRecorder) Buckets() []MinuteBucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.byMinute))
	for key := range r.byMinute {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]MinuteBucket, 0, len(keys))
	for _, key := range keys {
		out = append(out, MinuteBucket{Minute: key, Counters: r.byMinute[key]})
	}
	return out
}

// Stats is the aggregate view exposed to operators.
type Stats struct {
	ActiveIdentities  int                 `json:"active_identities"`
	BlockedIdentities int                 `json:"blocked_identities"`
	InFlightByTier    map[string]int      `json:"in_flight_by_tier"`
	Total             Counters            `json:"total"`
	ByCategory        map[string]Counters `json:"by_category"`
	RecentActivity    []MinuteBucket      `json:"recent_activity"`
}
