package readstore

import (
	"context"
	"time"

	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
)

// ScheduleReadStore loads the calendar inputs: recurring windows, date
// overrides and blackouts. Override window payloads are parsed into typed
// value objects here, at the boundary, failing fast on malformed data.
type ScheduleReadStore struct {
	db db.DBTX
}

func NewScheduleReadStore(dbtx db.DBTX) *ScheduleReadStore {
	return &ScheduleReadStore{db: dbtx}
}

func (s *ScheduleReadStore) ListWindows(ctx context.Context, resourceID uuid.UUID) ([]schedule.Window, error) {
	rows, err := s.db.Query(ctx, `
		SELECT resource_id, day_of_week,
			to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		FROM schedule_windows
		WHERE resource_id = $1
		ORDER BY day_of_week, start_time
	`, resourceID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list schedule windows", err)
	}
	defer rows.Close()

	var windows []schedule.Window
	for rows.Next() {
		var (
			resID      uuid.UUID
			dayOfWeek  int
			start, end string
		)
		if err := rows.Scan(&resID, &dayOfWeek, &start, &end); err != nil {
			return nil, infra.WrapRepoErr("failed to scan schedule window", err)
		}

		startTOD, err := schedule.ParseTimeOfDay(start)
		if err != nil {
			return nil, err
		}
		endTOD, err := schedule.ParseTimeOfDay(end)
		if err != nil {
			return nil, err
		}
		spec, err := schedule.NewWindowSpec(startTOD, endTOD)
		if err != nil {
			return nil, err
		}

		windows = append(windows, schedule.Window{
			ResourceID: resID,
			Day:        time.Weekday(dayOfWeek),
			Spec:       spec,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate schedule windows", err)
	}
	return windows, nil
}

// FindOverride returns the override for one resource-date, or nil when the
// recurring schedule applies.
func (s *ScheduleReadStore) FindOverride(ctx context.Context, resourceID uuid.UUID, date time.Time) (*schedule.DateOverride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT resource_id, date, closed, windows
		FROM availability_overrides
		WHERE resource_id = $1 AND date = $2::date
	`, resourceID, date)

	var (
		resID   uuid.UUID
		ovDate  time.Time
		closed  bool
		rawJSON []byte
	)
	if err := row.Scan(&resID, &ovDate, &closed, &rawJSON); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to find availability override", err)
	}

	override := &schedule.DateOverride{
		ResourceID: resID,
		Date:       ovDate,
		Closed:     closed,
	}
	if !closed {
		windows, err := schedule.ParseWindows(rawJSON)
		if err != nil {
			return nil, err
		}
		override.Windows = windows
	}
	return override, nil
}

// ListBlackouts returns resource-specific and business-wide blackouts
// overlapping the given range.
func (s *ScheduleReadStore) ListBlackouts(ctx context.Context, businessID, resourceID uuid.UUID, span timewindow.Interval) ([]schedule.Blackout, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, business_id, resource_id, starts_at, ends_at
		FROM blackout_intervals
		WHERE business_id = $1
			AND (resource_id IS NULL OR resource_id = $2)
			AND starts_at < $4
			AND ends_at > $3
		ORDER BY starts_at
	`, businessID, resourceID, span.Start(), span.End())
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list blackouts", err)
	}
	defer rows.Close()

	var blackouts []schedule.Blackout
	for rows.Next() {
		var (
			id, bizID uuid.UUID
			resID     *uuid.UUID
			start     time.Time
			end       time.Time
		)
		if err := rows.Scan(&id, &bizID, &resID, &start, &end); err != nil {
			return nil, infra.WrapRepoErr("failed to scan blackout", err)
		}
		interval, err := timewindow.New(start, end)
		if err != nil {
			return nil, err
		}
		blackouts = append(blackouts, schedule.Blackout{
			ID:         id,
			BusinessID: bizID,
			ResourceID: resID,
			Interval:   interval,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate blackouts", err)
	}
	return blackouts, nil
}
