package api

import (
	"errors"
	"net/http"
	"time"

	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	availabilityQueries queries.AvailabilityQueries
	location            *time.Location
}

func NewAvailabilityHandler(availabilityQueries queries.AvailabilityQueries, loc *time.Location) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityQueries: availabilityQueries,
		location:            loc,
	}
}

// @Summary Query availability
// @Description Resolve bookable slots for a business over a date range
// @Tags availability
// @Produce json
// @Param business_id query string true "Business ID"
// @Param bookable_type_id query string false "Bookable type ID"
// @Param resource_id query string false "Resource ID"
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD), defaults to from"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /availability [get]
func (h *AvailabilityHandler) Query(c *gin.Context) {
	var req reqdto.AvailabilityQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query parameters", nil)
		return
	}

	filters, err := req.ToFilters(h.location)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	slots, err := h.availabilityQueries.Query(c.Request.Context(), filters)
	if err != nil {
		abortQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromSlots(slots))
}

// @Summary Next available slots
// @Description Earliest free slots across businesses, optionally narrowed by business type
// @Tags availability
// @Produce json
// @Param business_type query string false "Business type filter"
// @Param limit query int false "Maximum slots to return"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Router /availability/next [get]
func (h *AvailabilityHandler) NextAvailable(c *gin.Context) {
	var req reqdto.NextAvailableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query parameters", nil)
		return
	}

	slots, err := h.availabilityQueries.NextAvailable(c.Request.Context(), req.BusinessType, req.Limit)
	if err != nil {
		abortQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromSlots(slots))
}

func abortQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid availability query", nil)
	case errors.Is(err, errs.ErrNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Business, resource or bookable type not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
