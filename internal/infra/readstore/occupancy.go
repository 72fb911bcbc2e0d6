package readstore

import (
	"context"
	"time"

	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
)

// OccupancyReadStore is the conflict detector's data source: the intervals
// occupied by blocking bookings and live holds.
type OccupancyReadStore struct {
	db db.DBTX
}

func NewOccupancyReadStore(dbtx db.DBTX) *OccupancyReadStore {
	return &OccupancyReadStore{db: dbtx}
}

// ListOccupied returns the occupied intervals for one resource within span.
// A hold counts only while now < expires_at regardless of its stored status
// (lazy expiry); the blocking booking statuses arrive as data from the
// configured partition.
func (s *OccupancyReadStore) ListOccupied(
	ctx context.Context,
	resourceID uuid.UUID,
	span timewindow.Interval,
	blockingStatuses []string,
	now time.Time,
) ([]timewindow.Interval, error) {
	rows, err := s.db.Query(ctx, `
		SELECT starts_at, ends_at
		FROM bookings
		WHERE resource_id = $1
			AND status = ANY($2)
			AND starts_at < $4
			AND ends_at > $3
		UNION ALL
		SELECT starts_at, ends_at
		FROM holds
		WHERE resource_id = $1
			AND status = 'active'
			AND expires_at > $5
			AND starts_at < $4
			AND ends_at > $3
		ORDER BY starts_at
	`, resourceID, blockingStatuses, span.Start(), span.End(), now)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list occupied intervals", err)
	}
	defer rows.Close()

	var occupied []timewindow.Interval
	for rows.Next() {
		var start, end time.Time
		if err := rows.Scan(&start, &end); err != nil {
			return nil, infra.WrapRepoErr("failed to scan occupied interval", err)
		}
		interval, err := timewindow.New(start, end)
		if err != nil {
			return nil, err
		}
		occupied = append(occupied, interval)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate occupied intervals", err)
	}

	return timewindow.Union(occupied), nil
}
