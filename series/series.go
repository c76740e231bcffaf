// Package series holds the raw, uncompressed representation of a
// time-series window: an ordered mapping from time to value.
package series

import "sort"

// DataPoint is a single (time, value) measurement. Time is typically
// milliseconds since the Unix epoch; value is an IEEE-754 float64.
//
// A DataPoint's identity within a series is its time: inserting a point at
// a time that already has a value overwrites that value.
type DataPoint struct {
	Time  int64
	Value float64
}

// RawSeries is an ordered mapping from time to value for a single series.
// Keys are unique; traversal is always ascending by time.
//
// RawSeries is the uncompressed form a chunk codec round-trips through: it
// is what the engine buffers in memory for the currently open window of a
// series, and what the codec produces when decompressing a catalog chunk.
type RawSeries struct {
	points map[int64]float64
}

// New creates an empty RawSeries.
func New() *RawSeries {
	return &RawSeries{points: make(map[int64]float64)}
}

// FromPoints builds a RawSeries from a slice of points, later points
// overwriting earlier ones at the same time.
func FromPoints(points []DataPoint) *RawSeries {
	s := New()
	for _, p := range points {
		s.Insert(p.Time, p.Value)
	}

	return s
}

// Insert sets the value at time t, overwriting any existing value at that
// time.
func (s *RawSeries) Insert(t int64, v float64) {
	if s.points == nil {
		s.points = make(map[int64]float64)
	}
	s.points[t] = v
}

// Get returns the value at time t and whether it exists.
func (s *RawSeries) Get(t int64) (float64, bool) {
	v, ok := s.points[t]
	return v, ok
}

// Len returns the number of points in the series.
func (s *RawSeries) Len() int {
	return len(s.points)
}

// SortedTimes returns the series' times in ascending order.
func (s *RawSeries) SortedTimes() []int64 {
	times := make([]int64, 0, len(s.points))
	for t := range s.points {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	return times
}

// FirstTime returns the smallest time present in the series.
func (s *RawSeries) FirstTime() (int64, bool) {
	times := s.SortedTimes()
	if len(times) == 0 {
		return 0, false
	}

	return times[0], true
}

// LastTime returns the largest time present in the series.
func (s *RawSeries) LastTime() (int64, bool) {
	times := s.SortedTimes()
	if len(times) == 0 {
		return 0, false
	}

	return times[len(times)-1], true
}

// Range returns the points with time in the half-open interval
// [start, stop), in ascending time order.
func (s *RawSeries) Range(start, stop int64) []DataPoint {
	if start >= stop {
		return nil
	}

	times := s.SortedTimes()
	points := make([]DataPoint, 0, len(times))
	for _, t := range times {
		if t < start || t >= stop {
			continue
		}
		points = append(points, DataPoint{Time: t, Value: s.points[t]})
	}

	return points
}

// Merge inserts every point of other into s. Points in other overwrite
// points already in s at the same time.
func (s *RawSeries) Merge(other *RawSeries) {
	if other == nil {
		return
	}
	for t, v := range other.points {
		s.Insert(t, v)
	}
}

// Trim removes every point whose time falls outside [start, stop).
func (s *RawSeries) Trim(start, stop int64) {
	for t := range s.points {
		if t < start || t >= stop {
			delete(s.points, t)
		}
	}
}

// Equal reports whether s and other contain exactly the same (time, value)
// pairs, comparing values with == except that the sign of zero is
// significant; a NaN value never compares equal.
func (s *RawSeries) Equal(other *RawSeries) bool {
	if other == nil {
		return len(s.points) == 0
	}
	if len(s.points) != len(other.points) {
		return false
	}
	for t, v := range s.points {
		ov, ok := other.points[t]
		if !ok {
			return false
		}
		if floatBitsEqual(v, ov) {
			continue
		}

		return false
	}

	return true
}

func floatBitsEqual(a, b float64) bool {
	return a == b && (a != 0 || signbitEqual(a, b))
}

func signbitEqual(a, b float64) bool {
	return (a == 0 && b == 0) && (1/a == 1/b)
}
