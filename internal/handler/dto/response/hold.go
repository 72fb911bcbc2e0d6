package response

import (
	"time"

	"booking-engine/internal/usecase/commands"

	"github.com/google/uuid"
)

type HoldResponse struct {
	HoldID     uuid.UUID `json:"holdId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	PriceCents int64     `json:"priceCents"`
}

func FromHoldResult(result *commands.HoldResult) HoldResponse {
	return HoldResponse{
		HoldID:     result.HoldID,
		ExpiresAt:  result.ExpiresAt,
		PriceCents: result.PriceCents,
	}
}

type RenewHoldResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

type PromoteHoldResponse struct {
	BookingID uuid.UUID `json:"bookingId"`
}
