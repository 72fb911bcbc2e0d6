package booking

import (
	"time"

	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
)

// Booking is a confirmed reservation of a resource for an interval. It is
// only ever created by promoting a hold; the promoted hold id is kept for
// audit.
type Booking struct {
	id             uuid.UUID
	resourceID     uuid.UUID
	bookableTypeID uuid.UUID
	holdID         uuid.UUID
	owner          Owner
	interval       timewindow.Interval
	status         Status
	priceCents     int64
	createdAt      time.Time
	updatedAt      time.Time
}

// FromPromotedHold creates the booking that backs a freshly promoted hold,
// freezing the price quoted at hold time. The hold must already be in the
// promoted state.
func FromPromotedHold(h *Hold, now time.Time) (*Booking, error) {
	if h.Status() != HoldPromoted {
		return nil, errs.Mark(errs.New("booking requires a promoted hold"), errs.ErrConflict)
	}

	return &Booking{
		id:             uuid.New(),
		resourceID:     h.ResourceID(),
		bookableTypeID: h.BookableTypeID(),
		holdID:         h.ID(),
		owner:          h.Owner(),
		interval:       h.Interval(),
		status:         StatusConfirmed,
		priceCents:     h.PriceCents(),
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func ReconstructBooking(
	id, resourceID, bookableTypeID, holdID uuid.UUID,
	owner Owner,
	interval timewindow.Interval,
	status Status,
	priceCents int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		resourceID:     resourceID,
		bookableTypeID: bookableTypeID,
		holdID:         holdID,
		owner:          owner,
		interval:       interval,
		status:         status,
		priceCents:     priceCents,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (b *Booking) ID() uuid.UUID                 { return b.id }
func (b *Booking) ResourceID() uuid.UUID         { return b.resourceID }
func (b *Booking) BookableTypeID() uuid.UUID     { return b.bookableTypeID }
func (b *Booking) HoldID() uuid.UUID             { return b.holdID }
func (b *Booking) Owner() Owner                  { return b.owner }
func (b *Booking) Interval() timewindow.Interval { return b.interval }
func (b *Booking) Status() Status                { return b.status }
func (b *Booking) PriceCents() int64             { return b.priceCents }
func (b *Booking) CreatedAt() time.Time          { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time          { return b.updatedAt }

// Blocks reports whether the booking occupies its resource under the given
// partition.
func (b *Booking) Blocks(partition StatusPartition) bool {
	return partition.IsBlocking(b.status)
}
