package commands_test

import (
	"context"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/pricing"
	"booking-engine/internal/domain/resource"
	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/metrics"
	"booking-engine/internal/pkg/timewindow"
	"booking-engine/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cmdBase = time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)

// fakeStore is an in-memory stand-in for the hold and booking repositories,
// mirroring the overlap semantics of the real store.
type fakeStore struct {
	holds    map[uuid.UUID]*booking.Hold
	bookings []*booking.Booking
	locked   []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{holds: map[uuid.UUID]*booking.Hold{}}
}

func (s *fakeStore) LockResource(_ context.Context, _ db.DBTX, resourceID uuid.UUID) error {
	s.locked = append(s.locked, resourceID)
	return nil
}

func (s *fakeStore) ExpireLapsed(_ context.Context, _ db.DBTX, resourceID uuid.UUID, now time.Time) error {
	for _, h := range s.holds {
		if h.ResourceID() == resourceID {
			h.MarkExpired(now)
		}
	}
	return nil
}

func (s *fakeStore) HasOverlap(_ context.Context, _ db.DBTX, resourceID uuid.UUID, interval timewindow.Interval, blockingStatuses []string, now time.Time) (bool, error) {
	blocking := map[string]struct{}{}
	for _, st := range blockingStatuses {
		blocking[st] = struct{}{}
	}
	for _, b := range s.bookings {
		if _, ok := blocking[b.Status().String()]; !ok {
			continue
		}
		if b.ResourceID() == resourceID && b.Interval().Overlaps(interval) {
			return true, nil
		}
	}
	for _, h := range s.holds {
		if h.ResourceID() == resourceID && h.IsLive(now) && h.Interval().Overlaps(interval) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Insert(_ context.Context, _ db.DBTX, h *booking.Hold) error {
	s.holds[h.ID()] = h
	return nil
}

func (s *fakeStore) FindForUpdate(_ context.Context, _ db.DBTX, id uuid.UUID) (*booking.Hold, error) {
	h, ok := s.holds[id]
	if !ok {
		return nil, errs.Mark(errs.New("hold not found"), errs.ErrNotFound)
	}
	// hand back a reconstruction so domain mutations only persist through
	// UpdateStatus/UpdateExpiry, as with real rows
	return booking.ReconstructHold(
		h.ID(), h.ResourceID(), h.BookableTypeID(), h.Interval(),
		h.Owner(), h.PriceCents(), h.Status(), h.CreatedAt(), h.ExpiresAt(),
	), nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, _ db.DBTX, id uuid.UUID, status booking.HoldStatus) error {
	h := s.holds[id]
	s.holds[id] = booking.ReconstructHold(
		h.ID(), h.ResourceID(), h.BookableTypeID(), h.Interval(),
		h.Owner(), h.PriceCents(), status, h.CreatedAt(), h.ExpiresAt(),
	)
	return nil
}

func (s *fakeStore) UpdateExpiry(_ context.Context, _ db.DBTX, id uuid.UUID, expiresAt time.Time) error {
	h := s.holds[id]
	s.holds[id] = booking.ReconstructHold(
		h.ID(), h.ResourceID(), h.BookableTypeID(), h.Interval(),
		h.Owner(), h.PriceCents(), h.Status(), h.CreatedAt(), expiresAt,
	)
	return nil
}

func (s *fakeStore) SweepExpired(_ context.Context, _ db.DBTX, now time.Time) (int64, error) {
	var n int64
	for _, h := range s.holds {
		if h.MarkExpired(now) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Create(_ context.Context, _ db.DBTX, b *booking.Booking, partition booking.StatusPartition) error {
	for _, existing := range s.bookings {
		if existing.ResourceID() == b.ResourceID() &&
			existing.Blocks(partition) &&
			existing.Interval().Overlaps(b.Interval()) &&
			existing.HoldID() != b.HoldID() {
			return errs.Mark(errs.New("booking interval already taken"), errs.ErrConflict)
		}
	}
	s.bookings = append(s.bookings, b)
	return nil
}

type fakeCatalog struct {
	resources map[uuid.UUID]*resource.Resource
	types     map[uuid.UUID]*resource.BookableType
}

func (f *fakeCatalog) FindResourceByID(_ context.Context, id uuid.UUID) (*resource.Resource, error) {
	if r, ok := f.resources[id]; ok {
		return r, nil
	}
	return nil, errs.Mark(errs.New("resource not found"), errs.ErrNotFound)
}

func (f *fakeCatalog) FindBookableTypeByID(_ context.Context, id uuid.UUID) (*resource.BookableType, error) {
	if t, ok := f.types[id]; ok {
		return t, nil
	}
	return nil, errs.Mark(errs.New("bookable type not found"), errs.ErrNotFound)
}

func (f *fakeCatalog) ListBookableTypes(context.Context, uuid.UUID) ([]*resource.BookableType, error) {
	return nil, nil
}

func (f *fakeCatalog) ListResources(context.Context, uuid.UUID, *uuid.UUID) ([]*resource.Resource, error) {
	return nil, nil
}

func (f *fakeCatalog) ListBusinessIDsByType(context.Context, string) ([]uuid.UUID, error) {
	return nil, nil
}

type fakePricing struct {
	rules []pricing.Rule
}

func (f *fakePricing) ListRules(context.Context, uuid.UUID) ([]pricing.Rule, error) {
	return f.rules, nil
}

type fakeSchedule struct {
	windows   []schedule.Window
	override  *schedule.DateOverride
	blackouts []schedule.Blackout
}

func (f *fakeSchedule) ListWindows(context.Context, uuid.UUID) ([]schedule.Window, error) {
	return f.windows, nil
}

func (f *fakeSchedule) FindOverride(context.Context, uuid.UUID, time.Time) (*schedule.DateOverride, error) {
	return f.override, nil
}

func (f *fakeSchedule) ListBlackouts(context.Context, uuid.UUID, uuid.UUID, timewindow.Interval) ([]schedule.Blackout, error) {
	return f.blackouts, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateAll(context.Context) { f.calls++ }

// fakeTxRunner runs the callback directly; the fakes need no transaction.
type fakeTxRunner struct{}

func (fakeTxRunner) InTx(_ context.Context, fn func(tx db.DBTX) error) error {
	return fn(nil)
}

type cmdFixture struct {
	store       *fakeStore
	catalog     *fakeCatalog
	schedule    *fakeSchedule
	pricing     *fakePricing
	invalidator *fakeInvalidator
	clock       *clock.MockClock
	businessID  uuid.UUID
	resourceID  uuid.UUID
	typeID      uuid.UUID
	uc          commands.HoldCommands
}

func newCmdFixture(t *testing.T) *cmdFixture {
	return newCmdFixtureIn(t, time.UTC)
}

// newCmdFixtureIn books against a calendar in loc, with the resource open
// Wednesdays 09:00-17:00 local.
func newCmdFixtureIn(t *testing.T, loc *time.Location) *cmdFixture {
	t.Helper()

	f := &cmdFixture{
		store:       newFakeStore(),
		pricing:     &fakePricing{},
		invalidator: &fakeInvalidator{},
		clock:       clock.NewMockClock(cmdBase),
		businessID:  uuid.New(),
		resourceID:  uuid.New(),
		typeID:      uuid.New(),
	}

	room, err := resource.NewResource(f.resourceID, f.businessID, "room 1", 1, true)
	require.NoError(t, err)
	bt, err := resource.NewBookableType(f.typeID, f.businessID, "massage", time.Hour, 10000)
	require.NoError(t, err)
	f.catalog = &fakeCatalog{
		resources: map[uuid.UUID]*resource.Resource{f.resourceID: room},
		types:     map[uuid.UUID]*resource.BookableType{f.typeID: bt},
	}
	f.schedule = &fakeSchedule{
		windows: []schedule.Window{weeklyWindow(t, f.resourceID, time.Wednesday, 9, 17)},
	}

	f.uc = commands.NewHoldUseCase(
		f.store, f.store, f.catalog, f.schedule, f.pricing, f.invalidator,
		schedule.NewCalendar(loc),
		booking.DefaultStatusPartition(),
		fakeTxRunner{}, f.clock,
		config.BookingConfig{HoldTTL: 10 * time.Minute},
		metrics.New(prometheus.NewRegistry()),
	)
	return f
}

func weeklyWindow(t *testing.T, resourceID uuid.UUID, day time.Weekday, fromHour, toHour int) schedule.Window {
	t.Helper()

	from, err := schedule.NewTimeOfDay(fromHour, 0)
	require.NoError(t, err)
	to, err := schedule.NewTimeOfDay(toHour, 0)
	require.NoError(t, err)
	spec, err := schedule.NewWindowSpec(from, to)
	require.NoError(t, err)
	return schedule.Window{ResourceID: resourceID, Day: day, Spec: spec}
}

func (f *cmdFixture) createInput() commands.CreateHoldInput {
	return commands.CreateHoldInput{
		ResourceID:     f.resourceID,
		BookableTypeID: f.typeID,
		Start:          cmdBase.Add(time.Hour),
		End:            cmdBase.Add(2 * time.Hour),
		Owner:          booking.NewUserOwner(uuid.New()),
	}
}

func TestCreateHold(t *testing.T) {
	f := newCmdFixture(t)

	result, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	assert.Equal(t, cmdBase.Add(10*time.Minute), result.ExpiresAt)
	assert.Equal(t, int64(10000), result.PriceCents)
	assert.Equal(t, []uuid.UUID{f.resourceID}, f.store.locked)
	assert.Equal(t, 1, f.invalidator.calls)

	stored := f.store.holds[result.HoldID]
	require.NotNil(t, stored)
	assert.Equal(t, booking.HoldActive, stored.Status())
	assert.Equal(t, f.typeID, stored.BookableTypeID())
}

func TestCreateHold_QuotesPriceAtHoldTime(t *testing.T) {
	f := newCmdFixture(t)

	pct, err := pricing.NewRule(uuid.New(), f.businessID, nil, nil, 10,
		pricing.PercentModifier(10), pricing.Predicate{})
	require.NoError(t, err)
	f.pricing.rules = []pricing.Rule{pct}

	result, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)
	assert.Equal(t, int64(11000), result.PriceCents)
}

func TestCreateHold_QuotesInBusinessLocalTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f := newCmdFixtureIn(t, ny)

	morning, err := pricing.NewRule(uuid.New(), f.businessID, nil, nil, 10,
		pricing.PercentModifier(10), pricing.Predicate{
			TimeFrom: tod(t, 9, 0),
			TimeTo:   tod(t, 12, 0),
		})
	require.NoError(t, err)
	f.pricing.rules = []pricing.Rule{morning}

	// 14:00Z is 10:00 in New York; the morning band must apply no matter
	// which offset the client expressed the instant in
	input := f.createInput()
	input.Start = time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	input.End = input.Start.Add(time.Hour)

	result, err := f.uc.CreateHold(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(11000), result.PriceCents)

	// another morning slot sent business-local quotes the same band
	local := f.createInput()
	local.Start = time.Date(2026, 9, 2, 11, 0, 0, 0, ny)
	local.End = local.Start.Add(time.Hour)

	localResult, err := f.uc.CreateHold(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, result.PriceCents, localResult.PriceCents)
}

func tod(t *testing.T, hour, minute int) *schedule.TimeOfDay {
	t.Helper()
	v, err := schedule.NewTimeOfDay(hour, minute)
	require.NoError(t, err)
	return &v
}

func TestCreateHold_RejectsOutsideOpenHours(t *testing.T) {
	f := newCmdFixture(t)

	night := f.createInput()
	night.Start = cmdBase.Add(-6 * time.Hour) // 03:00, long before the window opens
	night.End = night.Start.Add(time.Hour)

	_, err := f.uc.CreateHold(context.Background(), night)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, f.store.holds)
}

func TestCreateHold_RejectsBlackedOutInterval(t *testing.T) {
	f := newCmdFixture(t)
	f.schedule.blackouts = []schedule.Blackout{{
		ID:         uuid.New(),
		BusinessID: f.businessID,
		Interval:   timewindow.MustNew(cmdBase.Add(time.Hour), cmdBase.Add(2*time.Hour)),
	}}

	_, err := f.uc.CreateHold(context.Background(), f.createInput())
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, f.store.holds)
}

func TestCreateHold_RejectsClosedDay(t *testing.T) {
	f := newCmdFixture(t)
	f.schedule.override = &schedule.DateOverride{
		ResourceID: f.resourceID,
		Date:       cmdBase,
		Closed:     true,
	}

	_, err := f.uc.CreateHold(context.Background(), f.createInput())
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, f.store.holds)
}

func TestCreateHold_ConflictWithLiveHold(t *testing.T) {
	f := newCmdFixture(t)

	_, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	_, err = f.uc.CreateHold(context.Background(), f.createInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Len(t, f.store.holds, 1)
}

func TestCreateHold_LapsedHoldDoesNotBlock(t *testing.T) {
	f := newCmdFixture(t)

	first, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)

	second, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.HoldID, second.HoldID)
	assert.Equal(t, booking.HoldExpired, f.store.holds[first.HoldID].Status())
}

func TestCreateHold_ValidatesInput(t *testing.T) {
	f := newCmdFixture(t)

	inverted := f.createInput()
	inverted.End = inverted.Start
	_, err := f.uc.CreateHold(context.Background(), inverted)
	assert.ErrorIs(t, err, errs.ErrValidation)

	wrongLength := f.createInput()
	wrongLength.End = wrongLength.Start.Add(30 * time.Minute)
	_, err = f.uc.CreateHold(context.Background(), wrongLength)
	assert.ErrorIs(t, err, errs.ErrValidation)

	unknownResource := f.createInput()
	unknownResource.ResourceID = uuid.New()
	_, err = f.uc.CreateHold(context.Background(), unknownResource)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateHold_InactiveResource(t *testing.T) {
	f := newCmdFixture(t)
	inactive, err := resource.NewResource(f.resourceID, f.businessID, "room 1", 1, false)
	require.NoError(t, err)
	f.catalog.resources[f.resourceID] = inactive

	_, err = f.uc.CreateHold(context.Background(), f.createInput())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRenewHold(t *testing.T) {
	f := newCmdFixture(t)

	result, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	expiresAt, err := f.uc.RenewHold(context.Background(), result.HoldID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), expiresAt)
}

func TestRenewHold_LapsedLooksLikeMissing(t *testing.T) {
	f := newCmdFixture(t)

	result, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)
	_, err = f.uc.RenewHold(context.Background(), result.HoldID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.uc.RenewHold(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReleaseHold_IdempotentAndFreesTheSlot(t *testing.T) {
	f := newCmdFixture(t)

	result, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	require.NoError(t, f.uc.ReleaseHold(context.Background(), result.HoldID))
	assert.Equal(t, booking.HoldReleased, f.store.holds[result.HoldID].Status())

	// second release is a no-op, not an error
	require.NoError(t, f.uc.ReleaseHold(context.Background(), result.HoldID))

	// the slot is immediately acquirable again
	_, err = f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)
}

func TestPromoteHold(t *testing.T) {
	f := newCmdFixture(t)

	held, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	promoted, err := f.uc.PromoteHold(context.Background(), held.HoldID)
	require.NoError(t, err)

	assert.Equal(t, booking.HoldPromoted, f.store.holds[held.HoldID].Status())
	require.Len(t, f.store.bookings, 1)
	b := f.store.bookings[0]
	assert.Equal(t, promoted.BookingID, b.ID())
	assert.Equal(t, held.HoldID, b.HoldID())
	assert.Equal(t, booking.StatusConfirmed, b.Status())
	assert.Equal(t, held.PriceCents, b.PriceCents())
}

func TestPromoteHold_OnlyOnce(t *testing.T) {
	f := newCmdFixture(t)

	held, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)
	_, err = f.uc.PromoteHold(context.Background(), held.HoldID)
	require.NoError(t, err)

	_, err = f.uc.PromoteHold(context.Background(), held.HoldID)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Len(t, f.store.bookings, 1)
}

func TestPromoteHold_ExpiredNeverBooks(t *testing.T) {
	f := newCmdFixture(t)

	held, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	_, err = f.uc.PromoteHold(context.Background(), held.HoldID)
	assert.ErrorIs(t, err, errs.ErrExpired)
	assert.Empty(t, f.store.bookings)
}

func TestPromoteHold_ReleasedFails(t *testing.T) {
	f := newCmdFixture(t)

	held, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)
	require.NoError(t, f.uc.ReleaseHold(context.Background(), held.HoldID))

	_, err = f.uc.PromoteHold(context.Background(), held.HoldID)
	assert.ErrorIs(t, err, errs.ErrExpired)
	assert.Empty(t, f.store.bookings)
}

func TestSweepExpiredHolds(t *testing.T) {
	f := newCmdFixture(t)

	held, err := f.uc.CreateHold(context.Background(), f.createInput())
	require.NoError(t, err)

	n, err := f.uc.SweepExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "live holds are never swept")

	f.clock.Advance(10 * time.Minute)
	n, err = f.uc.SweepExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, booking.HoldExpired, f.store.holds[held.HoldID].Status())
}
