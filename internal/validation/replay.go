package validation

import (
	"sync"
	"time"
)

// DefaultReplayWindow is the sliding window inside which a repeated
// fingerprint counts as a replay.
const DefaultReplayWindow = 100 * time.Millisecond

// ReplayDetector remembers recently seen quote fingerprints. It is the only
// shared mutable state in the pipeline; CheckAndRecord is atomic under the
// mutex so two concurrent submissions of the same fingerprint cannot both
// pass. State is process-lifetime only and is not persisted.
type ReplayDetector struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time // fingerprint -> first seen
}

// NewReplayDetector creates a detector with the given window. A
// non-positive window falls back to DefaultReplayWindow.
func NewReplayDetector(window time.Duration) *ReplayDetector {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &ReplayDetector{
		window:  window,
		entries: make(map[string]time.Time),
	}
}

// CheckAndRecord reports whether the fingerprint was already seen inside the
// window. The first sighting records it and returns false; later sightings
// before expiry return true without re-extending the window. Entries older
// than twice the window are evicted on every call, which bounds memory to the
// distinct fingerprints of the last 2x window.
func (d *ReplayDetector) CheckAndRecord(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-2 * d.window)
	for fp, seen := range d.entries {
		if seen.Before(cutoff) {
			delete(d.entries, fp)
		}
	}

	if first, ok := d.entries[fingerprint]; ok {
		return now.Sub(first) < d.window
	}
	d.entries[fingerprint] = now
	return false
}

// Window returns the configured replay window.
func (d *ReplayDetector) Window() time.Duration {
	return d.window
}

// Len returns the current number of tracked fingerprints.
func (d *ReplayDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
