package response

import (
	"log/slog"
	"time"

	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type SlotResponse struct {
	ResourceID     uuid.UUID `json:"resourceId"`
	BookableTypeID uuid.UUID `json:"bookableTypeId"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	PriceCents     int64     `json:"priceCents"`
	Available      bool      `json:"available"`
}

type AvailabilityResponse struct {
	Slots []SlotResponse `json:"slots"`
}

func FromSlots(slots []queries.Slot) AvailabilityResponse {
	out := make([]SlotResponse, 0, len(slots))
	if err := copier.Copy(&out, &slots); err != nil {
		slog.Error("failed to map slots to response", "error", err.Error())
	}
	return AvailabilityResponse{Slots: out}
}
