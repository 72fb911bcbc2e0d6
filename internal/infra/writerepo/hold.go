package writerepo

import (
	"context"
	"errors"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/pkg/timewindow"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation    = "23505"
	pgErrCodeExclusionViolation = "23P01"
)

// HoldRepository is the write side of the hold state machine. Acquisition
// correctness: the caller runs LockResource, ExpireLapsed, HasOverlap and
// Insert inside one transaction; the advisory lock serializes writers per
// resource and the holds exclusion constraint backstops the overlap check.
type HoldRepository struct{}

func NewHoldRepository() *HoldRepository {
	return &HoldRepository{}
}

// LockResource takes a transaction-scoped advisory lock keyed by the
// resource id, serializing concurrent hold acquisition per resource.
func (r *HoldRepository) LockResource(ctx context.Context, tx db.DBTX, resourceID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))
	`, resourceID)
	if err != nil {
		return infra.WrapRepoErr("failed to lock resource for hold acquisition", err)
	}
	return nil
}

// ExpireLapsed flips lapsed active holds of one resource to expired so the
// exclusion constraint cannot reject a new hold because of a dead one. Lazy
// expiry on read paths makes this safe to run at any time.
func (r *HoldRepository) ExpireLapsed(ctx context.Context, tx db.DBTX, resourceID uuid.UUID, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE holds
		SET status = 'expired'
		WHERE resource_id = $1 AND status = 'active' AND expires_at <= $2
	`, resourceID, now)
	if err != nil {
		return infra.WrapRepoErr("failed to expire lapsed holds", err)
	}
	return nil
}

// HasOverlap re-checks the candidate interval against blocking bookings and
// live holds at acquisition time.
func (r *HoldRepository) HasOverlap(
	ctx context.Context,
	tx db.DBTX,
	resourceID uuid.UUID,
	interval timewindow.Interval,
	blockingStatuses []string,
	now time.Time,
) (bool, error) {
	row := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE resource_id = $1
				AND status = ANY($2)
				AND starts_at < $4 AND ends_at > $3
		) OR EXISTS (
			SELECT 1 FROM holds
			WHERE resource_id = $1
				AND status = 'active'
				AND expires_at > $5
				AND starts_at < $4 AND ends_at > $3
		)
	`, resourceID, blockingStatuses, interval.Start(), interval.End(), now)

	var occupied bool
	if err := row.Scan(&occupied); err != nil {
		return false, infra.WrapRepoErr("failed to check hold overlap", err)
	}
	return occupied, nil
}

func (r *HoldRepository) Insert(ctx context.Context, tx db.DBTX, h *booking.Hold) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO holds (
			id, resource_id, bookable_type_id, owner_kind, owner_id,
			price_cents, starts_at, ends_at, status, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		h.ID(), h.ResourceID(), h.BookableTypeID(),
		string(h.Owner().Kind()), h.Owner().ID(), h.PriceCents(),
		h.Interval().Start(), h.Interval().End(),
		string(h.Status()), h.CreatedAt(), h.ExpiresAt(),
	)
	if err != nil {
		if isConstraintConflict(err) {
			return infra.WrapRepoErr("hold interval already taken", err, infra.KindConflict)
		}
		return infra.WrapRepoErr("failed to insert hold", err)
	}
	return nil
}

// FindForUpdate loads a hold row-locked so state transitions serialize.
func (r *HoldRepository) FindForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Hold, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, resource_id, bookable_type_id, owner_kind, owner_id,
			price_cents, starts_at, ends_at, status, created_at, expires_at
		FROM holds
		WHERE id = $1
		FOR UPDATE
	`, id)

	var (
		holdID, resourceID, typeID uuid.UUID
		ownerKind, ownerID         string
		priceCents                 int64
		startsAt, endsAt           time.Time
		status                     string
		createdAt, expiresAt       time.Time
	)
	if err := row.Scan(&holdID, &resourceID, &typeID, &ownerKind, &ownerID, &priceCents, &startsAt, &endsAt, &status, &createdAt, &expiresAt); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("hold not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find hold for update", err)
	}

	interval, err := timewindow.New(startsAt, endsAt)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructHold(
		holdID, resourceID, typeID, interval,
		booking.ReconstructOwner(booking.OwnerKind(ownerKind), ownerID),
		priceCents,
		booking.HoldStatus(status),
		createdAt, expiresAt,
	), nil
}

func (r *HoldRepository) UpdateStatus(ctx context.Context, tx db.DBTX, id uuid.UUID, status booking.HoldStatus) error {
	_, err := tx.Exec(ctx, `
		UPDATE holds SET status = $2 WHERE id = $1
	`, id, string(status))
	if err != nil {
		return infra.WrapRepoErr("failed to update hold status", err)
	}
	return nil
}

func (r *HoldRepository) UpdateExpiry(ctx context.Context, tx db.DBTX, id uuid.UUID, expiresAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE holds SET expires_at = $2 WHERE id = $1
	`, id, expiresAt)
	if err != nil {
		return infra.WrapRepoErr("failed to update hold expiry", err)
	}
	return nil
}

// SweepExpired is the optional housekeeping pass. Correctness never depends
// on it; every read path applies lazy expiry on its own.
func (r *HoldRepository) SweepExpired(ctx context.Context, dbtx db.DBTX, now time.Time) (int64, error) {
	tag, err := dbtx.Exec(ctx, `
		UPDATE holds
		SET status = 'expired'
		WHERE status = 'active' AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to sweep expired holds", err)
	}
	return tag.RowsAffected(), nil
}

func isConstraintConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgErrCodeUniqueViolation || pgErr.Code == pgErrCodeExclusionViolation
}
