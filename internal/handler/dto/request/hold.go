package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateHoldRequest struct {
	ResourceID     uuid.UUID `json:"resource_id" binding:"required"`
	BookableTypeID uuid.UUID `json:"bookable_type_id" binding:"required"`
	Start          time.Time `json:"start" binding:"required"`
	End            time.Time `json:"end" binding:"required"`
}
