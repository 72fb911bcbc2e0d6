package commands

import (
	"context"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/domain/resource"
	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/metrics"
	"booking-engine/internal/pkg/timewindow"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

type HoldRepository interface {
	LockResource(ctx context.Context, tx db.DBTX, resourceID uuid.UUID) error
	ExpireLapsed(ctx context.Context, tx db.DBTX, resourceID uuid.UUID, now time.Time) error
	HasOverlap(ctx context.Context, tx db.DBTX, resourceID uuid.UUID, interval timewindow.Interval, blockingStatuses []string, now time.Time) (bool, error)
	Insert(ctx context.Context, tx db.DBTX, h *booking.Hold) error
	FindForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Hold, error)
	UpdateStatus(ctx context.Context, tx db.DBTX, id uuid.UUID, status booking.HoldStatus) error
	UpdateExpiry(ctx context.Context, tx db.DBTX, id uuid.UUID, expiresAt time.Time) error
	SweepExpired(ctx context.Context, dbtx db.DBTX, now time.Time) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *booking.Booking, partition booking.StatusPartition) error
}

// WidgetInvalidator drops cached next-available payloads after a write that
// changes occupancy.
type WidgetInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// TxRunner runs a callback inside one store transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx db.DBTX) error) error
}

type CreateHoldInput struct {
	ResourceID     uuid.UUID
	BookableTypeID uuid.UUID
	Start          time.Time
	End            time.Time
	Owner          booking.Owner
}

type HoldResult struct {
	HoldID     uuid.UUID
	ExpiresAt  time.Time
	PriceCents int64
}

type PromoteResult struct {
	BookingID uuid.UUID
}

type HoldCommands interface {
	CreateHold(ctx context.Context, input CreateHoldInput) (*HoldResult, error)
	RenewHold(ctx context.Context, id uuid.UUID) (time.Time, error)
	ReleaseHold(ctx context.Context, id uuid.UUID) error
	PromoteHold(ctx context.Context, id uuid.UUID) (*PromoteResult, error)
	SweepExpiredHolds(ctx context.Context) (int64, error)
}

type holdUseCaseImpl struct {
	holdRepo    HoldRepository
	bookingRepo BookingRepository
	catalog     queries.CatalogReads
	schedule    queries.ScheduleReads
	pricing     queries.PricingReads
	widgetCache WidgetInvalidator
	calendar    *schedule.Calendar
	partition   booking.StatusPartition
	tx          TxRunner
	clock       clock.Clock
	cfg         config.BookingConfig
	metrics     *metrics.Metrics
}

func NewHoldUseCase(
	holdRepo HoldRepository,
	bookingRepo BookingRepository,
	catalog queries.CatalogReads,
	scheduleReads queries.ScheduleReads,
	pricingReads queries.PricingReads,
	widgetCache WidgetInvalidator,
	calendar *schedule.Calendar,
	partition booking.StatusPartition,
	txRunner TxRunner,
	clk clock.Clock,
	cfg config.BookingConfig,
	m *metrics.Metrics,
) HoldCommands {
	return &holdUseCaseImpl{
		holdRepo:    holdRepo,
		bookingRepo: bookingRepo,
		catalog:     catalog,
		schedule:    scheduleReads,
		pricing:     pricingReads,
		widgetCache: widgetCache,
		calendar:    calendar,
		partition:   partition,
		tx:          txRunner,
		clock:       clk,
		cfg:         cfg,
		metrics:     m,
	}
}

// CreateHold atomically claims (resource, interval) for the owner. The
// overlap check and insert run in one transaction under a per-resource
// advisory lock, so concurrent attempts on the same slot serialize and
// exactly one wins. Never retried on store failure: an ambiguous retry could
// double-book.
func (u *holdUseCaseImpl) CreateHold(ctx context.Context, input CreateHoldInput) (*HoldResult, error) {
	interval, err := timewindow.New(input.Start, input.End)
	if err != nil {
		return nil, err
	}

	res, err := u.catalog.FindResourceByID(ctx, input.ResourceID)
	if err != nil {
		return nil, translateRepoErr(err)
	}
	if !res.IsActive() {
		return nil, errs.Mark(errs.New("resource is not active"), errs.ErrNotFound)
	}

	bt, err := u.catalog.FindBookableTypeByID(ctx, input.BookableTypeID)
	if err != nil {
		return nil, translateRepoErr(err)
	}
	if bt.BusinessID() != res.BusinessID() {
		return nil, errs.Mark(errs.New("bookable type belongs to another business"), errs.ErrValidation)
	}
	if interval.Duration() != bt.Duration() {
		return nil, errs.Mark(errs.New("interval length does not match the bookable type duration"), errs.ErrValidation)
	}

	if err := u.ensureWithinCalendar(ctx, res, interval); err != nil {
		return nil, err
	}

	rules, err := u.pricing.ListRules(ctx, res.BusinessID())
	if err != nil {
		return nil, translateRepoErr(err)
	}
	// quote on the business-local representation so time-band and weekday
	// rules read the same wall clock the availability query priced with,
	// whatever offset the client sent the instant in
	price := pricing.Quote(bt.BasePriceCents(), rules, pricing.SlotContext{
		BusinessID:     res.BusinessID(),
		BookableTypeID: bt.ID(),
		Start:          interval.Start().In(u.calendar.Location()),
	})

	now := u.clock.Now()
	hold, err := booking.NewHold(res.ID(), bt.ID(), interval, input.Owner, price, now, u.cfg.HoldTTL)
	if err != nil {
		return nil, err
	}

	err = u.tx.InTx(ctx, func(tx db.DBTX) error {
		if err := u.holdRepo.LockResource(ctx, tx, res.ID()); err != nil {
			return err
		}
		if err := u.holdRepo.ExpireLapsed(ctx, tx, res.ID(), now); err != nil {
			return err
		}

		occupied, err := u.holdRepo.HasOverlap(ctx, tx, res.ID(), interval, u.partition.BlockingStatuses(), now)
		if err != nil {
			return err
		}
		if occupied {
			return errs.Mark(errs.New("interval is already taken"), errs.ErrConflict)
		}

		return u.holdRepo.Insert(ctx, tx, hold)
	})
	if err != nil {
		if errs.Is(err, errs.ErrConflict) || infra.IsKind(err, infra.KindConflict) {
			u.metrics.HoldConflicts.Inc()
			return nil, errs.Mark(err, errs.ErrConflict)
		}
		return nil, translateRepoErr(err)
	}

	u.metrics.HoldsCreated.Inc()
	u.widgetCache.InvalidateAll(ctx)

	return &HoldResult{
		HoldID:     hold.ID(),
		ExpiresAt:  hold.ExpiresAt(),
		PriceCents: hold.PriceCents(),
	}, nil
}

// ensureWithinCalendar rejects intervals the resource's schedule never opens:
// outside every window, inside a blackout, or on a closed day. Occupancy is
// checked later inside the transaction; the schedule itself is stable enough
// to read outside it.
func (u *holdUseCaseImpl) ensureWithinCalendar(ctx context.Context, res *resource.Resource, interval timewindow.Interval) error {
	windows, err := u.schedule.ListWindows(ctx, res.ID())
	if err != nil {
		return translateRepoErr(err)
	}

	date := interval.Start().In(u.calendar.Location())
	override, err := u.schedule.FindOverride(ctx, res.ID(), date)
	if err != nil {
		return translateRepoErr(err)
	}

	day := u.calendar.DayBounds(date)
	blackouts, err := u.schedule.ListBlackouts(ctx, res.BusinessID(), res.ID(), day)
	if err != nil {
		return translateRepoErr(err)
	}

	for _, open := range u.calendar.OpenWindows(date, windows, override, blackouts) {
		if !interval.Start().Before(open.Start()) && !interval.End().After(open.End()) {
			return nil
		}
	}
	return errs.Mark(errs.New("interval is outside the resource's open hours"), errs.ErrValidation)
}

// RenewHold resets the expiry of a live hold. A lapsed or terminal hold is
// indistinguishable from a missing one.
func (u *holdUseCaseImpl) RenewHold(ctx context.Context, id uuid.UUID) (time.Time, error) {
	now := u.clock.Now()
	var expiresAt time.Time

	err := u.tx.InTx(ctx, func(tx db.DBTX) error {
		hold, err := u.holdRepo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := hold.Renew(now, u.cfg.HoldTTL); err != nil {
			return err
		}
		expiresAt = hold.ExpiresAt()
		return u.holdRepo.UpdateExpiry(ctx, tx, id, expiresAt)
	})
	if err != nil {
		return time.Time{}, translateRepoErr(err)
	}
	return expiresAt, nil
}

// ReleaseHold frees the slot. Releasing an already-terminal hold succeeds, so
// clients can retry the DELETE safely.
func (u *holdUseCaseImpl) ReleaseHold(ctx context.Context, id uuid.UUID) error {
	now := u.clock.Now()
	var released bool

	err := u.tx.InTx(ctx, func(tx db.DBTX) error {
		hold, err := u.holdRepo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		before := hold.Status()
		if err := hold.Release(now); err != nil {
			return err
		}
		released = before == booking.HoldActive && hold.Status() == booking.HoldReleased
		if hold.Status() == before {
			return nil
		}
		return u.holdRepo.UpdateStatus(ctx, tx, id, hold.Status())
	})
	if err != nil {
		return translateRepoErr(err)
	}

	if released {
		u.metrics.HoldsReleased.Inc()
		u.widgetCache.InvalidateAll(ctx)
	}
	return nil
}

// PromoteHold converts a live hold into a confirmed booking in one
// transaction. An expired hold never produces a booking; its row is flipped
// to expired on the way out.
func (u *holdUseCaseImpl) PromoteHold(ctx context.Context, id uuid.UUID) (*PromoteResult, error) {
	now := u.clock.Now()
	var bookingID uuid.UUID

	err := u.tx.InTx(ctx, func(tx db.DBTX) error {
		hold, err := u.holdRepo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		// a failed promote leaves the row's stored status untouched; lazy
		// expiry and the sweep make that harmless
		if promoteErr := hold.Promote(now); promoteErr != nil {
			return promoteErr
		}

		if err := u.holdRepo.UpdateStatus(ctx, tx, id, booking.HoldPromoted); err != nil {
			return err
		}

		b, err := booking.FromPromotedHold(hold, now)
		if err != nil {
			return err
		}
		if err := u.bookingRepo.Create(ctx, tx, b, u.partition); err != nil {
			return err
		}
		bookingID = b.ID()
		return nil
	})
	if err != nil {
		return nil, translateRepoErr(err)
	}

	u.metrics.HoldsPromoted.Inc()
	u.widgetCache.InvalidateAll(ctx)
	return &PromoteResult{BookingID: bookingID}, nil
}

// SweepExpiredHolds is housekeeping: read paths already treat lapsed holds as
// dead, this just keeps stored statuses tidy.
func (u *holdUseCaseImpl) SweepExpiredHolds(ctx context.Context) (int64, error) {
	var n int64
	err := u.tx.InTx(ctx, func(tx db.DBTX) error {
		var sweepErr error
		n, sweepErr = u.holdRepo.SweepExpired(ctx, tx, u.clock.Now())
		return sweepErr
	})
	if err != nil {
		return 0, translateRepoErr(err)
	}
	if n > 0 {
		u.metrics.HoldsExpired.Add(float64(n))
		u.widgetCache.InvalidateAll(ctx)
	}
	return n, nil
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
