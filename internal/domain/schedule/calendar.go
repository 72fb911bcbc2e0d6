package schedule

import (
	"time"

	"booking-engine/internal/pkg/timewindow"
)

// Calendar resolves the raw open window set for a resource on a date.
// Precedence, highest first: a closed override empties the day; an override
// with explicit windows replaces the recurring schedule entirely; otherwise
// the recurring weekly windows apply. Blackouts are subtracted last in every
// branch. Resolution is deterministic and safe to cache per (resource, date)
// for the lifetime of one availability request.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

func (c *Calendar) Location() *time.Location { return c.loc }

// DayBounds returns the absolute [midnight, next midnight) interval for a
// date in the calendar's location.
func (c *Calendar) DayBounds(date time.Time) timewindow.Interval {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, c.loc)
	return timewindow.MustNew(start, start.AddDate(0, 0, 1))
}

// OpenWindows computes the bookable windows for one resource-date. The
// recurring windows must already be filtered to the resource; the override,
// when present, must be for the same date.
func (c *Calendar) OpenWindows(
	date time.Time,
	recurring []Window,
	override *DateOverride,
	blackouts []Blackout,
) []timewindow.Interval {
	raw := c.rawWindows(date, recurring, override)
	if len(raw) == 0 {
		return nil
	}

	busy := make([]timewindow.Interval, 0, len(blackouts))
	day := c.DayBounds(date)
	for _, b := range blackouts {
		if clipped, ok := timewindow.Intersect(b.Interval, day); ok {
			busy = append(busy, clipped)
		}
	}

	return timewindow.SubtractAll(raw, busy)
}

func (c *Calendar) rawWindows(date time.Time, recurring []Window, override *DateOverride) []timewindow.Interval {
	if override != nil {
		if override.Closed {
			return nil
		}
		intervals := make([]timewindow.Interval, 0, len(override.Windows))
		for _, w := range override.Windows {
			intervals = append(intervals, w.OnDate(date, c.loc))
		}
		return timewindow.Union(intervals)
	}

	weekday := date.In(c.loc).Weekday()
	var intervals []timewindow.Interval
	for _, w := range recurring {
		if w.Day != weekday {
			continue
		}
		intervals = append(intervals, w.Spec.OnDate(date, c.loc))
	}
	return timewindow.Union(intervals)
}
