package limits

import "time"

// eventWindow holds the retained event timestamps for one identity and
// category, oldest first.
type eventWindow struct {
	events []time.Time
}

// prune drops every timestamp outside the trailing window ending at now.
func (w *eventWindow) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	keep := 0
	for keep < len(w.events) && !w.events[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		w.events = append(w.events[:0], w.events[keep:]...)
	}
}

// add appends an event timestamp at the tail.
func (w *eventWindow) add(t time.Time) {
	w.events = append(w.events, t)
}

// size returns the number of retained events.
func (w *eventWindow) size() int {
	return len(w.events)
}

// oldest returns the earliest retained timestamp.
func (w *eventWindow) oldest() (time.Time, bool) {
	if len(w.events) == 0 {
		return time.Time{}, false
	}
	return w.events[0], true
}

// countSince counts retained events strictly newer than the cutoff.
func (w *eventWindow) countSince(cutoff time.Time) int {
	// events are chronological, scan from the tail
	count := 0
	for i := len(w.events) - 1; i >= 0; i-- {
		if !w.events[i].After(cutoff) {
			break
		}
		count++
	}
	return count
}
