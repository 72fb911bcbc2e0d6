package request

import (
	"time"

	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

const dateFormat = "2006-01-02"

type AvailabilityQueryRequest struct {
	BusinessID     uuid.UUID  `form:"business_id" binding:"required"`
	BookableTypeID *uuid.UUID `form:"bookable_type_id"`
	ResourceID     *uuid.UUID `form:"resource_id"`
	From           string     `form:"from" binding:"required"`
	To             string     `form:"to"`
}

// ToFilters parses the date strings in the engine's configured location.
func (r AvailabilityQueryRequest) ToFilters(loc *time.Location) (queries.AvailabilityFilters, error) {
	from, err := time.ParseInLocation(dateFormat, r.From, loc)
	if err != nil {
		return queries.AvailabilityFilters{}, errs.Mark(
			errs.Wrapf(err, "invalid from date %q", r.From),
			errs.ErrValidation,
		)
	}

	filters := queries.AvailabilityFilters{
		BusinessID:     r.BusinessID,
		BookableTypeID: r.BookableTypeID,
		ResourceID:     r.ResourceID,
		From:           from,
	}
	if r.To != "" {
		to, err := time.ParseInLocation(dateFormat, r.To, loc)
		if err != nil {
			return queries.AvailabilityFilters{}, errs.Mark(
				errs.Wrapf(err, "invalid to date %q", r.To),
				errs.ErrValidation,
			)
		}
		filters.To = to
	}
	return filters, nil
}

type NextAvailableRequest struct {
	BusinessType string `form:"business_type"`
	Limit        int    `form:"limit"`
}
