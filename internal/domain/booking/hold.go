package booking

import (
	"time"

	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
)

type HoldStatus string

// Hold state machine: active -> {promoted, released, expired}, all terminal.
// No state re-enters active.
const (
	HoldActive   HoldStatus = "active"
	HoldPromoted HoldStatus = "promoted"
	HoldReleased HoldStatus = "released"
	HoldExpired  HoldStatus = "expired"
)

func (s HoldStatus) IsTerminal() bool {
	return s == HoldPromoted || s == HoldReleased || s == HoldExpired
}

type OwnerKind string

const (
	OwnerUser    OwnerKind = "user"
	OwnerSession OwnerKind = "session"
)

// Owner identifies who placed a hold: an authenticated user or an anonymous
// checkout session.
type Owner struct {
	kind OwnerKind
	id   string
}

func NewUserOwner(userID uuid.UUID) Owner {
	return Owner{kind: OwnerUser, id: userID.String()}
}

func NewSessionOwner(sessionID string) (Owner, error) {
	if sessionID == "" {
		return Owner{}, errs.Mark(errs.New("session owner id cannot be empty"), errs.ErrValidation)
	}
	return Owner{kind: OwnerSession, id: sessionID}, nil
}

func ReconstructOwner(kind OwnerKind, id string) Owner {
	return Owner{kind: kind, id: id}
}

func (o Owner) Kind() OwnerKind { return o.kind }
func (o Owner) ID() string      { return o.id }

// Hold is an exclusive, time-boxed claim on a (resource, interval). Its
// stored status is advisory only: every read path must compare expires_at
// against the clock and treat a lapsed active hold as nonexistent.
type Hold struct {
	id             uuid.UUID
	resourceID     uuid.UUID
	bookableTypeID uuid.UUID
	interval       timewindow.Interval
	owner          Owner
	priceCents     int64
	status         HoldStatus
	createdAt      time.Time
	expiresAt      time.Time
}

func NewHold(
	resourceID, bookableTypeID uuid.UUID,
	interval timewindow.Interval,
	owner Owner,
	priceCents int64,
	now time.Time,
	ttl time.Duration,
) (*Hold, error) {
	if ttl <= 0 {
		return nil, errs.Mark(errs.New("hold ttl must be positive"), errs.ErrValidation)
	}
	if priceCents < 0 {
		return nil, errs.Mark(errs.New("hold price cannot be negative"), errs.ErrValidation)
	}
	return &Hold{
		id:             uuid.New(),
		resourceID:     resourceID,
		bookableTypeID: bookableTypeID,
		interval:       interval,
		owner:          owner,
		priceCents:     priceCents,
		status:         HoldActive,
		createdAt:      now,
		expiresAt:      now.Add(ttl),
	}, nil
}

func ReconstructHold(
	id, resourceID, bookableTypeID uuid.UUID,
	interval timewindow.Interval,
	owner Owner,
	priceCents int64,
	status HoldStatus,
	createdAt, expiresAt time.Time,
) *Hold {
	return &Hold{
		id:             id,
		resourceID:     resourceID,
		bookableTypeID: bookableTypeID,
		interval:       interval,
		owner:          owner,
		priceCents:     priceCents,
		status:         status,
		createdAt:      createdAt,
		expiresAt:      expiresAt,
	}
}

func (h *Hold) ID() uuid.UUID                 { return h.id }
func (h *Hold) ResourceID() uuid.UUID         { return h.resourceID }
func (h *Hold) BookableTypeID() uuid.UUID     { return h.bookableTypeID }
func (h *Hold) Interval() timewindow.Interval { return h.interval }
func (h *Hold) Owner() Owner                  { return h.owner }
func (h *Hold) PriceCents() int64             { return h.priceCents }
func (h *Hold) Status() HoldStatus            { return h.status }
func (h *Hold) CreatedAt() time.Time          { return h.createdAt }
func (h *Hold) ExpiresAt() time.Time          { return h.expiresAt }

// IsLive reports whether the hold occupies its resource at the given instant.
// Lazy expiry: an active hold past its expiry is already dead even if no
// sweep has updated the row.
func (h *Hold) IsLive(now time.Time) bool {
	return h.status == HoldActive && now.Before(h.expiresAt)
}

// Renew resets the expiry window. Valid only while live.
func (h *Hold) Renew(now time.Time, ttl time.Duration) error {
	if !h.IsLive(now) {
		return errs.Mark(errs.New("hold is expired or terminal"), errs.ErrNotFound)
	}
	h.expiresAt = now.Add(ttl)
	return nil
}

// Release transitions active -> released. Releasing an already-terminal hold
// is a successful no-op, which makes the public release operation idempotent.
func (h *Hold) Release(now time.Time) error {
	if h.status.IsTerminal() {
		return nil
	}
	if !now.Before(h.expiresAt) {
		h.status = HoldExpired
		return nil
	}
	h.status = HoldReleased
	return nil
}

// Promote transitions active -> promoted. A lapsed hold fails with
// ErrExpired and must never produce a booking.
func (h *Hold) Promote(now time.Time) error {
	if h.status == HoldPromoted {
		return errs.Mark(errs.New("hold already promoted"), errs.ErrConflict)
	}
	if h.status.IsTerminal() {
		return errs.Mark(errs.New("hold is terminal"), errs.ErrExpired)
	}
	if !now.Before(h.expiresAt) {
		h.status = HoldExpired
		return errs.Mark(errs.New("hold expiry has passed"), errs.ErrExpired)
	}
	h.status = HoldPromoted
	return nil
}

// MarkExpired is used by the background sweep.
func (h *Hold) MarkExpired(now time.Time) bool {
	if h.status != HoldActive || now.Before(h.expiresAt) {
		return false
	}
	h.status = HoldExpired
	return true
}
