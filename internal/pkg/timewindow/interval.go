// Package timewindow implements the pure interval algebra the availability
// engine is built on. All intervals are half-open [start, end) in a single
// canonical location; operations are total and allocate fresh slices.
package timewindow

import (
	"sort"
	"time"

	"booking-engine/internal/pkg/errs"
)

type Interval struct {
	start time.Time
	end   time.Time
}

// New rejects zero-length and inverted ranges at construction so the algebra
// below never has to handle them.
func New(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, errs.Mark(
			errs.New("interval end must be after start"),
			errs.ErrValidation,
		)
	}
	return Interval{start: start, end: end}, nil
}

// MustNew is for literals in tests and static schedules whose validity is
// known at the call site.
func MustNew(start, end time.Time) Interval {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

func (iv Interval) Start() time.Time        { return iv.start }
func (iv Interval) End() time.Time          { return iv.end }
func (iv Interval) Duration() time.Duration { return iv.end.Sub(iv.start) }

// Overlaps reports whether [a.start,a.end) and [b.start,b.end) share any
// instant. Adjacent intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.start.Before(other.end) && other.start.Before(iv.end)
}

func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.start) && t.Before(iv.end)
}

func (iv Interval) Equal(other Interval) bool {
	return iv.start.Equal(other.start) && iv.end.Equal(other.end)
}

// Intersect returns the common sub-interval and whether one exists.
func Intersect(a, b Interval) (Interval, bool) {
	start := a.start
	if b.start.After(start) {
		start = b.start
	}
	end := a.end
	if b.end.Before(end) {
		end = b.end
	}
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{start: start, end: end}, true
}

// Union merges overlapping and adjacent intervals into a minimal sorted set.
func Union(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].start.Before(sorted[j].start)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.start.After(last.end) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes the union of busy from free, yielding the remaining free
// sub-intervals in order. Zero, one, or many intervals may come back.
func Subtract(free Interval, busy []Interval) []Interval {
	blockers := Union(busy)

	var result []Interval
	cursor := free.start
	for _, b := range blockers {
		if !b.end.After(cursor) {
			continue
		}
		if !b.start.Before(free.end) {
			break
		}
		if b.start.After(cursor) {
			result = append(result, Interval{start: cursor, end: b.start})
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if cursor.Before(free.end) {
		result = append(result, Interval{start: cursor, end: free.end})
	}
	return result
}

// SubtractAll applies Subtract to each free window and concatenates the
// results, preserving order.
func SubtractAll(free []Interval, busy []Interval) []Interval {
	var result []Interval
	for _, f := range free {
		result = append(result, Subtract(f, busy)...)
	}
	return result
}

// Slice cuts a free window into discrete bookable slots of the given
// duration, sliding by step. A slot is emitted only when it fits entirely
// inside the window.
func Slice(free Interval, duration, step time.Duration) []Interval {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var slots []Interval
	for t := free.start; !t.Add(duration).After(free.end); t = t.Add(step) {
		slots = append(slots, Interval{start: t, end: t.Add(duration)})
	}
	return slots
}
