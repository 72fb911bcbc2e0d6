package readstore

import (
	"context"
	"time"

	"booking-engine/internal/domain/resource"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
)

// CatalogReadStore serves the admin-owned catalog: businesses, resources and
// bookable types. The engine never mutates any of it.
type CatalogReadStore struct {
	db db.DBTX
}

func NewCatalogReadStore(dbtx db.DBTX) *CatalogReadStore {
	return &CatalogReadStore{db: dbtx}
}

func (s *CatalogReadStore) FindResourceByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, business_id, name, capacity, active
		FROM resources
		WHERE id = $1
	`, id)

	var (
		resID, businessID uuid.UUID
		name              string
		capacity          int
		active            bool
	)
	if err := row.Scan(&resID, &businessID, &name, &capacity, &active); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find resource by ID", err)
	}

	return resource.NewResource(resID, businessID, name, capacity, active)
}

func (s *CatalogReadStore) FindBookableTypeByID(ctx context.Context, id uuid.UUID) (*resource.BookableType, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, business_id, name, duration_minutes, base_price_cents
		FROM bookable_types
		WHERE id = $1
	`, id)

	var (
		typeID, businessID uuid.UUID
		name               string
		durationMinutes    int
		basePriceCents     int64
	)
	if err := row.Scan(&typeID, &businessID, &name, &durationMinutes, &basePriceCents); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("bookable type not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find bookable type by ID", err)
	}

	return resource.NewBookableType(
		typeID, businessID, name,
		time.Duration(durationMinutes)*time.Minute,
		basePriceCents,
	)
}

// ListBookableTypes returns every bookable type of a business.
func (s *CatalogReadStore) ListBookableTypes(ctx context.Context, businessID uuid.UUID) ([]*resource.BookableType, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, business_id, name, duration_minutes, base_price_cents
		FROM bookable_types
		WHERE business_id = $1
		ORDER BY name
	`, businessID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookable types", err)
	}
	defer rows.Close()

	var types []*resource.BookableType
	for rows.Next() {
		var (
			typeID, bizID   uuid.UUID
			name            string
			durationMinutes int
			basePriceCents  int64
		)
		if err := rows.Scan(&typeID, &bizID, &name, &durationMinutes, &basePriceCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan bookable type", err)
		}
		bt, err := resource.NewBookableType(
			typeID, bizID, name,
			time.Duration(durationMinutes)*time.Minute,
			basePriceCents,
		)
		if err != nil {
			return nil, err
		}
		types = append(types, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate bookable types", err)
	}
	return types, nil
}

// ListResources returns the active resources of a business, narrowed to the
// ones compatible with a bookable type when one is given. Ordered by id for
// deterministic slot output.
func (s *CatalogReadStore) ListResources(ctx context.Context, businessID uuid.UUID, bookableTypeID *uuid.UUID) ([]*resource.Resource, error) {
	query := `
		SELECT r.id, r.business_id, r.name, r.capacity, r.active
		FROM resources r
		WHERE r.business_id = $1 AND r.active
		ORDER BY r.id
	`
	args := []any{businessID}
	if bookableTypeID != nil {
		query = `
			SELECT r.id, r.business_id, r.name, r.capacity, r.active
			FROM resources r
			JOIN bookable_type_resources btr ON btr.resource_id = r.id
			WHERE r.business_id = $1 AND r.active AND btr.bookable_type_id = $2
			ORDER BY r.id
		`
		args = append(args, *bookableTypeID)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list resources", err)
	}
	defer rows.Close()

	var resources []*resource.Resource
	for rows.Next() {
		var (
			resID, bizID uuid.UUID
			name         string
			capacity     int
			active       bool
		)
		if err := rows.Scan(&resID, &bizID, &name, &capacity, &active); err != nil {
			return nil, infra.WrapRepoErr("failed to scan resource", err)
		}
		r, err := resource.NewResource(resID, bizID, name, capacity, active)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate resources", err)
	}
	return resources, nil
}

// ListBusinessIDsByType backs the next-available widget's business_type
// filter. An empty type means every business.
func (s *CatalogReadStore) ListBusinessIDsByType(ctx context.Context, businessType string) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM businesses WHERE $1 = '' OR business_type = $1 ORDER BY id
	`, businessType)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list businesses by type", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan business id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate businesses", err)
	}
	return ids, nil
}
