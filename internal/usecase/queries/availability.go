package queries

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/domain/resource"
	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/metrics"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
)

const (
	// MaxQueryRangeDays bounds one availability request; longer ranges must
	// be paginated by the caller.
	MaxQueryRangeDays = 31

	// nextAvailableLookaheadDays bounds how far the widget scans before
	// giving up on a resource with no free slots.
	nextAvailableLookaheadDays = 14

	defaultNextAvailableLimit = 10
	maxNextAvailableLimit     = 50

	readRetryBaseBackoff = 50 * time.Millisecond
)

// Slot is one bookable candidate: a concrete resource, interval and quoted
// price. Results are advisory; the slot may be taken by the time a hold is
// attempted.
type Slot struct {
	ResourceID     uuid.UUID `json:"resource_id"`
	BookableTypeID uuid.UUID `json:"bookable_type_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	PriceCents     int64     `json:"price_cents"`
	Available      bool      `json:"available"`
}

// AvailabilityFilters narrows a query. BookableTypeID nil means every type of
// the business; ResourceID nil means every compatible resource. To zero means
// a single-day query for From.
type AvailabilityFilters struct {
	BusinessID     uuid.UUID
	BookableTypeID *uuid.UUID
	ResourceID     *uuid.UUID
	From           time.Time
	To             time.Time
}

type CatalogReads interface {
	FindResourceByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
	FindBookableTypeByID(ctx context.Context, id uuid.UUID) (*resource.BookableType, error)
	ListBookableTypes(ctx context.Context, businessID uuid.UUID) ([]*resource.BookableType, error)
	ListResources(ctx context.Context, businessID uuid.UUID, bookableTypeID *uuid.UUID) ([]*resource.Resource, error)
	ListBusinessIDsByType(ctx context.Context, businessType string) ([]uuid.UUID, error)
}

type ScheduleReads interface {
	ListWindows(ctx context.Context, resourceID uuid.UUID) ([]schedule.Window, error)
	FindOverride(ctx context.Context, resourceID uuid.UUID, date time.Time) (*schedule.DateOverride, error)
	ListBlackouts(ctx context.Context, businessID, resourceID uuid.UUID, span timewindow.Interval) ([]schedule.Blackout, error)
}

type OccupancyReads interface {
	ListOccupied(ctx context.Context, resourceID uuid.UUID, span timewindow.Interval, blockingStatuses []string, now time.Time) ([]timewindow.Interval, error)
}

type PricingReads interface {
	ListRules(ctx context.Context, businessID uuid.UUID) ([]pricing.Rule, error)
}

// WidgetCache keeps next-available payloads for a short TTL. Every miss or
// failure degrades to a recompute.
type WidgetCache interface {
	Get(ctx context.Context, businessType string, limit int) ([]byte, bool)
	Set(ctx context.Context, businessType string, limit int, payload []byte)
	InvalidateAll(ctx context.Context)
}

type AvailabilityQueries interface {
	Query(ctx context.Context, filters AvailabilityFilters) ([]Slot, error)
	NextAvailable(ctx context.Context, businessType string, limit int) ([]Slot, error)
}

type availabilityQueriesImpl struct {
	catalog   CatalogReads
	schedule  ScheduleReads
	occupancy OccupancyReads
	pricing   PricingReads
	cache     WidgetCache
	calendar  *schedule.Calendar
	partition booking.StatusPartition
	clock     clock.Clock
	cfg       config.BookingConfig
	metrics   *metrics.Metrics
}

func NewAvailabilityQueries(
	catalog CatalogReads,
	scheduleReads ScheduleReads,
	occupancy OccupancyReads,
	pricingReads PricingReads,
	cache WidgetCache,
	calendar *schedule.Calendar,
	partition booking.StatusPartition,
	clk clock.Clock,
	cfg config.BookingConfig,
	m *metrics.Metrics,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		catalog:   catalog,
		schedule:  scheduleReads,
		occupancy: occupancy,
		pricing:   pricingReads,
		cache:     cache,
		calendar:  calendar,
		partition: partition,
		clock:     clk,
		cfg:       cfg,
		metrics:   m,
	}
}

// Query resolves bookable slots for a business over a date range. Per
// resource and date: calendar windows minus occupied intervals, sliced into
// duration-sized slots and priced. Sorted by (start, resource id).
func (q *availabilityQueriesImpl) Query(ctx context.Context, filters AvailabilityFilters) ([]Slot, error) {
	start := time.Now()
	defer func() {
		q.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	if filters.From.IsZero() {
		return nil, errs.Mark(errs.New("availability query needs a date"), errs.ErrValidation)
	}
	if filters.To.IsZero() {
		filters.To = filters.From
	}
	if filters.To.Before(filters.From) {
		return nil, errs.Mark(errs.New("availability range end is before start"), errs.ErrValidation)
	}
	if filters.To.Sub(filters.From) > MaxQueryRangeDays*24*time.Hour {
		return nil, errs.Mark(errs.New("availability range is too long"), errs.ErrValidation)
	}

	var slots []Slot
	err := q.withReadRetry(ctx, func() error {
		var innerErr error
		slots, innerErr = q.resolve(ctx, filters)
		return innerErr
	})
	if err != nil {
		return nil, err
	}

	sortSlots(slots)
	return slots, nil
}

// NextAvailable returns the earliest free slots across every business of the
// given type, scanning day by day from now. It runs the exact resolution path
// Query uses; the only addition is the short-TTL cache in front.
func (q *availabilityQueriesImpl) NextAvailable(ctx context.Context, businessType string, limit int) ([]Slot, error) {
	start := time.Now()
	defer func() {
		q.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = defaultNextAvailableLimit
	}
	if limit > maxNextAvailableLimit {
		limit = maxNextAvailableLimit
	}

	if payload, ok := q.cache.Get(ctx, businessType, limit); ok {
		var cached []Slot
		if err := json.Unmarshal(payload, &cached); err == nil {
			q.metrics.CacheHits.Inc()
			return cached, nil
		}
		slog.Warn("discarding malformed next-available cache payload")
	}
	q.metrics.CacheMisses.Inc()

	var slots []Slot
	err := q.withReadRetry(ctx, func() error {
		var innerErr error
		slots, innerErr = q.scanNextAvailable(ctx, businessType, limit)
		return innerErr
	})
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(slots); err == nil {
		q.cache.Set(ctx, businessType, limit, payload)
	}
	return slots, nil
}

func (q *availabilityQueriesImpl) resolve(ctx context.Context, filters AvailabilityFilters) ([]Slot, error) {
	types, err := q.resolveTypes(ctx, filters)
	if err != nil {
		return nil, err
	}

	rules, err := q.pricing.ListRules(ctx, filters.BusinessID)
	if err != nil {
		return nil, translateRepoErr(err)
	}

	now := q.clock.Now()
	var slots []Slot
	windowsByResource := map[uuid.UUID][]schedule.Window{}

	for _, bt := range types {
		resources, err := q.resolveResources(ctx, filters, bt.ID())
		if err != nil {
			return nil, err
		}

		for _, res := range resources {
			windows, ok := windowsByResource[res.ID()]
			if !ok {
				windows, err = q.schedule.ListWindows(ctx, res.ID())
				if err != nil {
					return nil, translateRepoErr(err)
				}
				windowsByResource[res.ID()] = windows
			}

			for date := filters.From; !date.After(filters.To); date = date.AddDate(0, 0, 1) {
				daySlots, err := q.resolveDay(ctx, res, bt, windows, rules, date, now)
				if err != nil {
					return nil, err
				}
				slots = append(slots, daySlots...)
			}
		}
	}
	return slots, nil
}

// resolveDay is the shared core of Query and NextAvailable: one resource, one
// date, fully resolved to priced slots.
func (q *availabilityQueriesImpl) resolveDay(
	ctx context.Context,
	res *resource.Resource,
	bt *resource.BookableType,
	windows []schedule.Window,
	rules []pricing.Rule,
	date time.Time,
	now time.Time,
) ([]Slot, error) {
	override, err := q.schedule.FindOverride(ctx, res.ID(), date)
	if err != nil {
		return nil, translateRepoErr(err)
	}

	day := q.calendar.DayBounds(date)
	blackouts, err := q.schedule.ListBlackouts(ctx, res.BusinessID(), res.ID(), day)
	if err != nil {
		return nil, translateRepoErr(err)
	}

	open := q.calendar.OpenWindows(date, windows, override, blackouts)
	if len(open) == 0 {
		return nil, nil
	}

	occupied, err := q.occupancy.ListOccupied(ctx, res.ID(), day, q.partition.BlockingStatuses(), now)
	if err != nil {
		return nil, translateRepoErr(err)
	}

	free := timewindow.SubtractAll(open, occupied)

	step := q.cfg.SlotStep
	if step <= 0 {
		step = bt.Duration()
	}

	var slots []Slot
	for _, f := range free {
		for _, s := range timewindow.Slice(f, bt.Duration(), step) {
			price := pricing.Quote(bt.BasePriceCents(), rules, pricing.SlotContext{
				BusinessID:     res.BusinessID(),
				BookableTypeID: bt.ID(),
				Start:          s.Start(),
			})
			slots = append(slots, Slot{
				ResourceID:     res.ID(),
				BookableTypeID: bt.ID(),
				Start:          s.Start(),
				End:            s.End(),
				PriceCents:     price,
				Available:      true,
			})
		}
	}
	return slots, nil
}

func (q *availabilityQueriesImpl) scanNextAvailable(ctx context.Context, businessType string, limit int) ([]Slot, error) {
	businessIDs, err := q.catalog.ListBusinessIDsByType(ctx, businessType)
	if err != nil {
		return nil, translateRepoErr(err)
	}

	now := q.clock.Now()
	today := now.In(q.calendar.Location())

	var slots []Slot
	for dayOffset := 0; dayOffset < nextAvailableLookaheadDays; dayOffset++ {
		date := today.AddDate(0, 0, dayOffset)

		for _, businessID := range businessIDs {
			daySlots, err := q.resolve(ctx, AvailabilityFilters{
				BusinessID: businessID,
				From:       date,
				To:         date,
			})
			if err != nil {
				return nil, err
			}
			for _, s := range daySlots {
				if s.Start.Before(now) {
					continue
				}
				slots = append(slots, s)
			}
		}

		// enough candidates collected; later days can only be later slots
		if len(slots) >= limit {
			break
		}
	}

	sortSlots(slots)
	if len(slots) > limit {
		slots = slots[:limit]
	}
	return slots, nil
}

func (q *availabilityQueriesImpl) resolveTypes(ctx context.Context, filters AvailabilityFilters) ([]*resource.BookableType, error) {
	if filters.BookableTypeID != nil {
		bt, err := q.catalog.FindBookableTypeByID(ctx, *filters.BookableTypeID)
		if err != nil {
			return nil, translateRepoErr(err)
		}
		if bt.BusinessID() != filters.BusinessID {
			return nil, errs.Mark(errs.New("bookable type belongs to another business"), errs.ErrNotFound)
		}
		return []*resource.BookableType{bt}, nil
	}

	types, err := q.catalog.ListBookableTypes(ctx, filters.BusinessID)
	if err != nil {
		return nil, translateRepoErr(err)
	}
	return types, nil
}

func (q *availabilityQueriesImpl) resolveResources(ctx context.Context, filters AvailabilityFilters, bookableTypeID uuid.UUID) ([]*resource.Resource, error) {
	resources, err := q.catalog.ListResources(ctx, filters.BusinessID, &bookableTypeID)
	if err != nil {
		return nil, translateRepoErr(err)
	}
	if filters.ResourceID == nil {
		return resources, nil
	}

	for _, r := range resources {
		if r.ID() == *filters.ResourceID {
			return []*resource.Resource{r}, nil
		}
	}
	return nil, nil
}

// withReadRetry retries the whole read-only resolution on transient store
// failure. Only DB_FAILURE kinds retry; conflicts and not-founds are final.
func (q *availabilityQueriesImpl) withReadRetry(ctx context.Context, fn func() error) error {
	attempts := q.cfg.StoreReadRetries
	if attempts < 0 {
		attempts = 0
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errs.Is(err, errs.ErrStore) || attempt >= attempts {
			return err
		}

		backoff := readRetryBaseBackoff * time.Duration(attempt+1)
		slog.Warn("availability read failed, retrying",
			"attempt", attempt+1, "backoff", backoff.String(), "error", err.Error())
		select {
		case <-ctx.Done():
			return errs.Mark(ctx.Err(), errs.ErrStore)
		case <-time.After(backoff):
		}
	}
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return slots[i].ResourceID.String() < slots[j].ResourceID.String()
	})
}

func translateRepoErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, errs.ErrNotFound)
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(err, errs.ErrConflict)
	case infra.IsKind(err, infra.KindDBFailure):
		return errs.Mark(err, errs.ErrStore)
	default:
		return err
	}
}
