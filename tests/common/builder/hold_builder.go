//go:build unit || e2e

package builder

import (
	"time"

	reqdto "booking-engine/internal/handler/dto/request"
	"booking-engine/internal/usecase/commands"

	"github.com/google/uuid"
)

type HoldBuilder struct {
	ResourceID     uuid.UUID
	BookableTypeID uuid.UUID
	Start          time.Time
	End            time.Time
	PriceCents     int64
	TTL            time.Duration
}

func NewHoldBuilder() *HoldBuilder {
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	return &HoldBuilder{
		ResourceID:     uuid.New(),
		BookableTypeID: uuid.New(),
		Start:          start,
		End:            start.Add(time.Hour),
		PriceCents:     10000,
		TTL:            10 * time.Minute,
	}
}

func (b *HoldBuilder) With(mutate func(*HoldBuilder)) *HoldBuilder {
	mutate(b)
	return b
}

func (b *HoldBuilder) BuildCreateRequestDTO() reqdto.CreateHoldRequest {
	return reqdto.CreateHoldRequest{
		ResourceID:     b.ResourceID,
		BookableTypeID: b.BookableTypeID,
		Start:          b.Start,
		End:            b.End,
	}
}

func (b *HoldBuilder) BuildResult() *commands.HoldResult {
	return &commands.HoldResult{
		HoldID:     uuid.New(),
		ExpiresAt:  b.Start.Add(b.TTL),
		PriceCents: b.PriceCents,
	}
}
