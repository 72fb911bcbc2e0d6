package readstore

import (
	"context"
	"time"

	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"

	"github.com/google/uuid"
)

type PricingReadStore struct {
	db db.DBTX
}

func NewPricingReadStore(dbtx db.DBTX) *PricingReadStore {
	return &PricingReadStore{db: dbtx}
}

// ListRules returns every pricing rule of a business, priority-ordered.
// Matching against concrete slots happens in the domain.
func (s *PricingReadStore) ListRules(ctx context.Context, businessID uuid.UUID) ([]pricing.Rule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, business_id, bookable_type_id, package_id, priority,
			percent, delta_cents, date_from, date_to, days_of_week,
			to_char(time_from, 'HH24:MI'), to_char(time_to, 'HH24:MI')
		FROM pricing_rules
		WHERE business_id = $1
		ORDER BY priority, created_at
	`, businessID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list pricing rules", err)
	}
	defer rows.Close()

	var rules []pricing.Rule
	for rows.Next() {
		var (
			id, bizID         uuid.UUID
			bookableTypeID    *uuid.UUID
			packageID         *uuid.UUID
			priority          int
			percent           *float64
			deltaCents        *int64
			dateFrom, dateTo  *time.Time
			daysOfWeek        []int16
			timeFrom, timeTo  *string
		)
		if err := rows.Scan(
			&id, &bizID, &bookableTypeID, &packageID, &priority,
			&percent, &deltaCents, &dateFrom, &dateTo, &daysOfWeek,
			&timeFrom, &timeTo,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan pricing rule", err)
		}

		var modifier pricing.Modifier
		switch {
		case percent != nil:
			modifier = pricing.PercentModifier(*percent)
		case deltaCents != nil:
			modifier = pricing.DeltaModifier(*deltaCents)
		}

		predicate := pricing.Predicate{
			DateFrom: dateFrom,
			DateTo:   dateTo,
		}
		for _, d := range daysOfWeek {
			predicate.Days = append(predicate.Days, time.Weekday(d))
		}
		if timeFrom != nil {
			tod, err := schedule.ParseTimeOfDay(*timeFrom)
			if err != nil {
				return nil, err
			}
			predicate.TimeFrom = &tod
		}
		if timeTo != nil {
			tod, err := schedule.ParseTimeOfDay(*timeTo)
			if err != nil {
				return nil, err
			}
			predicate.TimeTo = &tod
		}

		rule, err := pricing.NewRule(id, bizID, bookableTypeID, packageID, priority, modifier, predicate)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate pricing rules", err)
	}
	return rules, nil
}
