package writerepo

import (
	"context"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
)

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

// Create inserts the booking backing a promoted hold. It must run in the
// same transaction as the hold's status flip; the blocking flag mirrors the
// configured status partition so the exclusion constraint stays free of the
// status vocabulary.
func (r *BookingRepository) Create(ctx context.Context, tx db.DBTX, b *booking.Booking, partition booking.StatusPartition) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (
			id, resource_id, bookable_type_id, hold_id,
			owner_kind, owner_id, starts_at, ends_at,
			status, blocking, price_cents, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		b.ID(), b.ResourceID(), b.BookableTypeID(), b.HoldID(),
		string(b.Owner().Kind()), b.Owner().ID(),
		b.Interval().Start(), b.Interval().End(),
		b.Status().String(), b.Blocks(partition), b.PriceCents(),
		b.CreatedAt(), b.UpdatedAt(),
	)
	if err != nil {
		if isConstraintConflict(err) {
			return infra.WrapRepoErr("booking interval already taken", err, infra.KindConflict)
		}
		return infra.WrapRepoErr("failed to insert booking", err)
	}
	return nil
}
