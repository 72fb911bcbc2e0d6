package booking_test

import (
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	holdBase = time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	holdTTL  = 10 * time.Minute
)

func newActiveHold(t *testing.T) *booking.Hold {
	t.Helper()
	interval := timewindow.MustNew(holdBase, holdBase.Add(time.Hour))
	h, err := booking.NewHold(uuid.New(), uuid.New(), interval, booking.NewUserOwner(uuid.New()), 10500, holdBase, holdTTL)
	require.NoError(t, err)
	return h
}

func TestNewHold_SetsExpiryFromTTL(t *testing.T) {
	h := newActiveHold(t)

	assert.Equal(t, booking.HoldActive, h.Status())
	assert.Equal(t, holdBase.Add(holdTTL), h.ExpiresAt())
	assert.True(t, h.IsLive(holdBase))
}

func TestNewHold_RejectsNonPositiveTTL(t *testing.T) {
	interval := timewindow.MustNew(holdBase, holdBase.Add(time.Hour))
	_, err := booking.NewHold(uuid.New(), uuid.New(), interval, booking.NewUserOwner(uuid.New()), 10500, holdBase, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestNewHold_RejectsNegativePrice(t *testing.T) {
	interval := timewindow.MustNew(holdBase, holdBase.Add(time.Hour))
	_, err := booking.NewHold(uuid.New(), uuid.New(), interval, booking.NewUserOwner(uuid.New()), -1, holdBase, holdTTL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestHold_LazyExpiry(t *testing.T) {
	h := newActiveHold(t)

	// stored status still reads active, but the hold no longer occupies
	assert.True(t, h.IsLive(holdBase.Add(holdTTL-time.Second)))
	assert.False(t, h.IsLive(holdBase.Add(holdTTL)))
	assert.Equal(t, booking.HoldActive, h.Status())
}

func TestHold_Renew(t *testing.T) {
	h := newActiveHold(t)

	require.NoError(t, h.Renew(holdBase.Add(5*time.Minute), holdTTL))
	assert.Equal(t, holdBase.Add(5*time.Minute+holdTTL), h.ExpiresAt())

	err := h.Renew(h.ExpiresAt(), holdTTL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestHold_ReleaseIsIdempotent(t *testing.T) {
	h := newActiveHold(t)
	now := holdBase.Add(time.Minute)

	require.NoError(t, h.Release(now))
	assert.Equal(t, booking.HoldReleased, h.Status())

	// second release is a successful no-op and keeps the terminal state
	require.NoError(t, h.Release(now.Add(time.Minute)))
	assert.Equal(t, booking.HoldReleased, h.Status())
}

func TestHold_ReleaseAfterExpiryMarksExpired(t *testing.T) {
	h := newActiveHold(t)

	require.NoError(t, h.Release(holdBase.Add(holdTTL+time.Second)))
	assert.Equal(t, booking.HoldExpired, h.Status())
}

func TestHold_Promote(t *testing.T) {
	h := newActiveHold(t)

	require.NoError(t, h.Promote(holdBase.Add(time.Minute)))
	assert.Equal(t, booking.HoldPromoted, h.Status())

	// promoted exactly once
	err := h.Promote(holdBase.Add(2 * time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestHold_PromoteAfterExpiryFails(t *testing.T) {
	h := newActiveHold(t)

	err := h.Promote(holdBase.Add(holdTTL))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrExpired)
	assert.Equal(t, booking.HoldExpired, h.Status())
}

func TestHold_PromoteReleasedHoldFails(t *testing.T) {
	h := newActiveHold(t)
	require.NoError(t, h.Release(holdBase))

	err := h.Promote(holdBase.Add(time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrExpired)
}

func TestHold_MarkExpired(t *testing.T) {
	h := newActiveHold(t)

	assert.False(t, h.MarkExpired(holdBase.Add(time.Minute)), "live hold must not be swept")
	assert.True(t, h.MarkExpired(holdBase.Add(holdTTL)))
	assert.Equal(t, booking.HoldExpired, h.Status())
	assert.False(t, h.MarkExpired(holdBase.Add(holdTTL)), "sweep is one-shot")
}

func TestFromPromotedHold(t *testing.T) {
	h := newActiveHold(t)
	require.NoError(t, h.Promote(holdBase))

	b, err := booking.FromPromotedHold(h, holdBase)
	require.NoError(t, err)
	assert.Equal(t, h.ID(), b.HoldID())
	assert.Equal(t, h.ResourceID(), b.ResourceID())
	assert.Equal(t, h.BookableTypeID(), b.BookableTypeID())
	assert.Equal(t, booking.StatusConfirmed, b.Status())
	assert.Equal(t, int64(10500), b.PriceCents())
	assert.True(t, b.Interval().Equal(h.Interval()))
}

func TestFromPromotedHold_RequiresPromotedState(t *testing.T) {
	h := newActiveHold(t)

	_, err := booking.FromPromotedHold(h, holdBase)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestNewSessionOwner_RejectsEmpty(t *testing.T) {
	_, err := booking.NewSessionOwner("")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
