//go:build unit || e2e

package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func CreateBusiness(t *testing.T, db DBLike, name, businessType string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO businesses (id, name, business_type) VALUES ($1, $2, $3)",
		id, name, businessType)
	require.NoError(t, err)
	return id
}

func CreateResource(t *testing.T, db DBLike, businessID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO resources (id, business_id, name, capacity, active) VALUES ($1, $2, $3, 1, true)",
		id, businessID, name)
	require.NoError(t, err)
	return id
}

func CreateBookableType(t *testing.T, db DBLike, businessID uuid.UUID, name string, durationMinutes int, basePriceCents int64, resourceIDs ...uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	ctx := context.Background()
	_, err := db.Exec(ctx,
		"INSERT INTO bookable_types (id, business_id, name, duration_minutes, base_price_cents) VALUES ($1, $2, $3, $4, $5)",
		id, businessID, name, durationMinutes, basePriceCents)
	require.NoError(t, err)

	for _, resourceID := range resourceIDs {
		_, err := db.Exec(ctx,
			"INSERT INTO bookable_type_resources (bookable_type_id, resource_id) VALUES ($1, $2)",
			id, resourceID)
		require.NoError(t, err)
	}
	return id
}

// AddWeeklyWindow opens a recurring window; dayOfWeek follows time.Weekday
// (0 = Sunday).
func AddWeeklyWindow(t *testing.T, db DBLike, resourceID uuid.UUID, dayOfWeek int, startTime, endTime string) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO schedule_windows (resource_id, day_of_week, start_time, end_time) VALUES ($1, $2, $3, $4)",
		resourceID, dayOfWeek, startTime, endTime)
	require.NoError(t, err)
}

func AddPercentRule(t *testing.T, db DBLike, businessID uuid.UUID, bookableTypeID *uuid.UUID, priority int, percent float64) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO pricing_rules (business_id, bookable_type_id, priority, percent) VALUES ($1, $2, $3, $4)",
		businessID, bookableTypeID, priority, percent)
	require.NoError(t, err)
}

func AddDeltaRule(t *testing.T, db DBLike, businessID uuid.UUID, bookableTypeID *uuid.UUID, priority int, deltaCents int64) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO pricing_rules (business_id, bookable_type_id, priority, delta_cents) VALUES ($1, $2, $3, $4)",
		businessID, bookableTypeID, priority, deltaCents)
	require.NoError(t, err)
}

func AddBlackout(t *testing.T, db DBLike, businessID uuid.UUID, resourceID *uuid.UUID, startsAt, endsAt time.Time, reason string) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO blackout_intervals (business_id, resource_id, starts_at, ends_at, reason) VALUES ($1, $2, $3, $4, $5)",
		businessID, resourceID, startsAt, endsAt, reason)
	require.NoError(t, err)
}

func AddClosedOverride(t *testing.T, db DBLike, resourceID uuid.UUID, date time.Time) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO availability_overrides (resource_id, date, closed) VALUES ($1, $2, true)",
		resourceID, date.Format("2006-01-02"))
	require.NoError(t, err)
}
