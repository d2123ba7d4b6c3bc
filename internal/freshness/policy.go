// Package freshness decides whether cached records are recent enough to skip
// an upstream refetch.
package freshness

import "time"

// DefaultThreshold is the maximum age of a fresh team, player or game record
const DefaultThreshold = 24 * time.Hour

// Policy compares stored lastUpdated stamps against the current time
type Policy struct {
	Threshold time.Duration
	Now       func() time.Time
}

// NewPolicy returns a policy using the wall clock
func NewPolicy(threshold time.Duration) Policy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Policy{Threshold: threshold, Now: time.Now}
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// IsFresh reports whether a record stamped at lastUpdated is no older than the
// threshold. A zero stamp means the record was never stored and is stale; a
// stamp ahead of the clock counts as fresh.
func (p Policy) IsFresh(lastUpdated time.Time) bool {
	if lastUpdated.IsZero() {
		return false
	}
	return p.now().Sub(lastUpdated) <= p.Threshold
}

// Age returns how old a stamp is, or -1 for a missing one
func (p Policy) Age(lastUpdated time.Time) time.Duration {
	if lastUpdated.IsZero() {
		return -1
	}
	return p.now().Sub(lastUpdated)
}

// AnyFresh is the coarse collection check: true when the newest stamp is fresh
func (p Policy) AnyFresh(stamps ...time.Time) bool {
	for _, s := range stamps {
		if p.IsFresh(s) {
			return true
		}
	}
	return false
}

// Exists is the statistics policy: a stored record never goes stale
func Exists(found bool) bool {
	return found
}
