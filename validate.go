package kelpie

import (
	"math"

	"github.com/rnxpyke/kelpie/series"
)

// acceptable reports whether point may reach a live buffer. Rejected
// points are dropped silently, with no observable failure: NaN values,
// negative times, and time == math.MaxInt64 (the one time no window can
// contain: the last window's end saturates at math.MaxInt64 and is
// exclusive) never reach storage.
func acceptable(p series.DataPoint) bool {
	if math.IsNaN(p.Value) {
		return false
	}
	if p.Time < 0 {
		return false
	}
	if p.Time == math.MaxInt64 {
		return false
	}

	return true
}
