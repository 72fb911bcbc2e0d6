package resource

import (
	"strings"
	"time"

	"booking-engine/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName   = errs.New("resource name cannot be empty")
	ErrResourceNameTooLong = errs.New("resource name is too long (max 255 characters)")
	ErrInvalidCapacity     = errs.New("resource capacity must be at least 1")
	ErrInvalidDuration     = errs.New("bookable type duration must be positive")
)

const MaxResourceNameLength = 255

// Resource is a bookable physical or human unit: a room, a desk, a provider.
// Staff own its lifecycle; it is never deleted while bookings reference it,
// only deactivated.
type Resource struct {
	id         uuid.UUID
	businessID uuid.UUID
	name       string
	capacity   int
	active     bool
}

func NewResource(id, businessID uuid.UUID, name string, capacity int, active bool) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Mark(ErrEmptyResourceName, errs.ErrValidation)
	}
	if len(name) > MaxResourceNameLength {
		return nil, errs.Mark(ErrResourceNameTooLong, errs.ErrValidation)
	}
	if capacity < 1 {
		return nil, errs.Mark(ErrInvalidCapacity, errs.ErrValidation)
	}

	return &Resource{
		id:         id,
		businessID: businessID,
		name:       name,
		capacity:   capacity,
		active:     active,
	}, nil
}

func (r *Resource) ID() uuid.UUID         { return r.id }
func (r *Resource) BusinessID() uuid.UUID { return r.businessID }
func (r *Resource) Name() string          { return r.name }
func (r *Resource) Capacity() int         { return r.capacity }
func (r *Resource) IsActive() bool        { return r.active }

// BookableType is a purchasable service or rental bound to one business. Its
// duration drives slot slicing; its base price feeds the pricing overlay.
type BookableType struct {
	id             uuid.UUID
	businessID     uuid.UUID
	name           string
	duration       time.Duration
	basePriceCents int64
}

func NewBookableType(id, businessID uuid.UUID, name string, duration time.Duration, basePriceCents int64) (*BookableType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Mark(ErrEmptyResourceName, errs.ErrValidation)
	}
	if duration <= 0 {
		return nil, errs.Mark(ErrInvalidDuration, errs.ErrValidation)
	}

	return &BookableType{
		id:             id,
		businessID:     businessID,
		name:           name,
		duration:       duration,
		basePriceCents: basePriceCents,
	}, nil
}

func (b *BookableType) ID() uuid.UUID            { return b.id }
func (b *BookableType) BusinessID() uuid.UUID    { return b.businessID }
func (b *BookableType) Name() string             { return b.name }
func (b *BookableType) Duration() time.Duration  { return b.duration }
func (b *BookableType) BasePriceCents() int64    { return b.basePriceCents }
