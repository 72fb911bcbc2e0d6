package pricing

import (
	"sort"
	"time"

	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

// Modifier is either a percentage change or a fixed cents delta. Exactly one
// of the two is set; NewRule enforces that.
type Modifier struct {
	percent    *float64
	deltaCents *int64
}

func PercentModifier(percent float64) Modifier {
	return Modifier{percent: &percent}
}

func DeltaModifier(cents int64) Modifier {
	return Modifier{deltaCents: &cents}
}

func (m Modifier) apply(priceCents int64) int64 {
	if m.percent != nil {
		return int64(float64(priceCents) * (100.0 + *m.percent) / 100.0)
	}
	if m.deltaCents != nil {
		return priceCents + *m.deltaCents
	}
	return priceCents
}

// Predicate is the activation condition of a rule. Nil fields mean
// "unconstrained".
type Predicate struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Days     []time.Weekday
	TimeFrom *schedule.TimeOfDay
	TimeTo   *schedule.TimeOfDay
}

func (p Predicate) matches(start time.Time) bool {
	if p.DateFrom != nil && start.Before(*p.DateFrom) {
		return false
	}
	if p.DateTo != nil && !start.Before(*p.DateTo) {
		return false
	}
	if len(p.Days) > 0 {
		found := false
		for _, d := range p.Days {
			if start.Weekday() == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	minuteOfDay := start.Hour()*60 + start.Minute()
	if p.TimeFrom != nil && minuteOfDay < p.TimeFrom.Hour()*60+p.TimeFrom.Minute() {
		return false
	}
	if p.TimeTo != nil && minuteOfDay >= p.TimeTo.Hour()*60+p.TimeTo.Minute() {
		return false
	}
	return true
}

// Rule is a priority-ordered price modifier scoped to a business and
// optionally narrowed to one bookable type and package.
type Rule struct {
	id             uuid.UUID
	businessID     uuid.UUID
	bookableTypeID *uuid.UUID
	packageID      *uuid.UUID
	priority       int
	modifier       Modifier
	predicate      Predicate
}

func NewRule(
	id, businessID uuid.UUID,
	bookableTypeID, packageID *uuid.UUID,
	priority int,
	modifier Modifier,
	predicate Predicate,
) (Rule, error) {
	if modifier.percent == nil && modifier.deltaCents == nil {
		return Rule{}, errs.Mark(errs.New("pricing rule needs a modifier"), errs.ErrValidation)
	}
	if modifier.percent != nil && modifier.deltaCents != nil {
		return Rule{}, errs.Mark(errs.New("pricing rule modifier must be percent or delta, not both"), errs.ErrValidation)
	}
	return Rule{
		id:             id,
		businessID:     businessID,
		bookableTypeID: bookableTypeID,
		packageID:      packageID,
		priority:       priority,
		modifier:       modifier,
		predicate:      predicate,
	}, nil
}

func (r Rule) ID() uuid.UUID { return r.id }
func (r Rule) Priority() int { return r.priority }

// SlotContext is everything a rule may inspect about a resolved slot.
type SlotContext struct {
	BusinessID     uuid.UUID
	BookableTypeID uuid.UUID
	PackageID      *uuid.UUID
	Start          time.Time
}

func (r Rule) Matches(ctx SlotContext) bool {
	if r.businessID != ctx.BusinessID {
		return false
	}
	if r.bookableTypeID != nil && *r.bookableTypeID != ctx.BookableTypeID {
		return false
	}
	if r.packageID != nil {
		if ctx.PackageID == nil || *r.packageID != *ctx.PackageID {
			return false
		}
	}
	return r.predicate.matches(ctx.Start)
}

// Quote applies every matching rule cumulatively in ascending priority order:
// each modifier transforms the running price, so priority decides how
// additive and multiplicative rules compose. The result is floored at zero,
// never an error.
func Quote(baseCents int64, rules []Rule, ctx SlotContext) int64 {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].priority < ordered[j].priority
	})

	price := baseCents
	for _, r := range ordered {
		if !r.Matches(ctx) {
			continue
		}
		price = r.modifier.apply(price)
	}
	if price < 0 {
		price = 0
	}
	return price
}
