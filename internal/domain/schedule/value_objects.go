package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
)

const timeOfDayFormat = "15:04"

// TimeOfDay is a wall-clock minute within a day, independent of any date.
type TimeOfDay struct {
	hour   int
	minute int
}

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, errs.Mark(
			errs.New(fmt.Sprintf("invalid time of day %02d:%02d", hour, minute)),
			errs.ErrValidation,
		)
	}
	return TimeOfDay{hour: hour, minute: minute}, nil
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayFormat, s)
	if err != nil {
		return TimeOfDay{}, errs.Mark(
			errs.Wrapf(err, "invalid time of day %q", s),
			errs.ErrValidation,
		)
	}
	return TimeOfDay{hour: t.Hour(), minute: t.Minute()}, nil
}

func (t TimeOfDay) Hour() int   { return t.hour }
func (t TimeOfDay) Minute() int { return t.minute }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.hour*60+t.minute < other.hour*60+other.minute
}

// On projects the wall-clock time onto a concrete date in the given location.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.hour, t.minute, 0, 0, loc)
}

// WindowSpec is a validated open window within a day, used both by recurring
// schedules and by date overrides.
type WindowSpec struct {
	start TimeOfDay
	end   TimeOfDay
}

func NewWindowSpec(start, end TimeOfDay) (WindowSpec, error) {
	if !start.Before(end) {
		return WindowSpec{}, errs.Mark(
			errs.New("window start must be before end"),
			errs.ErrValidation,
		)
	}
	return WindowSpec{start: start, end: end}, nil
}

func (w WindowSpec) Start() TimeOfDay { return w.start }
func (w WindowSpec) End() TimeOfDay   { return w.end }

// OnDate turns the window into an absolute interval for one date.
func (w WindowSpec) OnDate(date time.Time, loc *time.Location) timewindow.Interval {
	return timewindow.MustNew(w.start.On(date, loc), w.end.On(date, loc))
}

type windowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParseWindows decodes the override windows payload stored as JSON, failing
// fast on any malformed entry. The engine never passes loosely-typed maps
// past this boundary.
func ParseWindows(raw []byte) ([]WindowSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var entries []windowJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errs.Mark(
			errs.Wrap(err, "malformed override windows payload"),
			errs.ErrValidation,
		)
	}

	windows := make([]WindowSpec, 0, len(entries))
	for i, e := range entries {
		start, err := ParseTimeOfDay(e.Start)
		if err != nil {
			return nil, errs.Wrapf(err, "override window %d", i)
		}
		end, err := ParseTimeOfDay(e.End)
		if err != nil {
			return nil, errs.Wrapf(err, "override window %d", i)
		}
		w, err := NewWindowSpec(start, end)
		if err != nil {
			return nil, errs.Wrapf(err, "override window %d", i)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// EncodeWindows is the inverse of ParseWindows, used by fixtures and admin
// tooling.
func EncodeWindows(windows []WindowSpec) ([]byte, error) {
	entries := make([]windowJSON, len(windows))
	for i, w := range windows {
		entries[i] = windowJSON{Start: w.start.String(), End: w.end.String()}
	}
	return json.Marshal(entries)
}

// Window is one recurring weekly open window for a resource.
type Window struct {
	ResourceID uuid.UUID
	Day        time.Weekday
	Spec       WindowSpec
}

// DateOverride replaces the recurring schedule for one resource on one date:
// either fully closed, or open exactly during Windows.
type DateOverride struct {
	ResourceID uuid.UUID
	Date       time.Time
	Closed     bool
	Windows    []WindowSpec
}

// Blackout is an absolute interval during which a resource (or the whole
// business when ResourceID is nil) is unbookable regardless of schedule.
type Blackout struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	ResourceID *uuid.UUID
	Interval   timewindow.Interval
}
