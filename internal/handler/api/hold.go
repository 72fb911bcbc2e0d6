package api

import (
	"errors"
	"net/http"

	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HoldHandler struct {
	holdCommands commands.HoldCommands
}

func NewHoldHandler(holdCommands commands.HoldCommands) *HoldHandler {
	return &HoldHandler{holdCommands: holdCommands}
}

// @Summary Create hold
// @Description Place an exclusive, time-boxed claim on a resource interval
// @Tags holds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Session-ID header string false "Anonymous checkout session id"
// @Param request body reqdto.CreateHoldRequest true "Hold request"
// @Success 201 {object} resdto.HoldResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /holds [post]
func (h *HoldHandler) Create(c *gin.Context) {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError,
			errs.New("owner missing from context"), "Internal server error", nil)
		return
	}

	var req reqdto.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.holdCommands.CreateHold(c.Request.Context(), commands.CreateHoldInput{
		ResourceID:     req.ResourceID,
		BookableTypeID: req.BookableTypeID,
		Start:          req.Start,
		End:            req.End,
		Owner:          owner,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrConflict):
			httperr.AbortWithError(c, http.StatusConflict, err, "Interval is already held or booked", nil)
		case errors.Is(err, errs.ErrValidation):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid hold request", nil)
		case errors.Is(err, errs.ErrNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Resource or bookable type not found", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromHoldResult(result))
}

// @Summary Renew hold
// @Description Reset the expiry window of a live hold
// @Tags holds
// @Produce json
// @Security BearerAuth
// @Param id path string true "Hold ID"
// @Success 200 {object} resdto.RenewHoldResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /holds/{id}/renew [post]
func (h *HoldHandler) Renew(c *gin.Context) {
	id, ok := holdID(c)
	if !ok {
		return
	}

	expiresAt, err := h.holdCommands.RenewHold(c.Request.Context(), id)
	if err != nil {
		// a lapsed hold is indistinguishable from a missing one
		if errors.Is(err, errs.ErrNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Hold not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, resdto.RenewHoldResponse{ExpiresAt: expiresAt})
}

// @Summary Release hold
// @Description Release a hold, freeing its interval immediately. Idempotent.
// @Tags holds
// @Security BearerAuth
// @Param id path string true "Hold ID"
// @Success 204
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /holds/{id} [delete]
func (h *HoldHandler) Release(c *gin.Context) {
	id, ok := holdID(c)
	if !ok {
		return
	}

	if err := h.holdCommands.ReleaseHold(c.Request.Context(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Hold not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Promote hold
// @Description Convert a live hold into a confirmed booking
// @Tags holds
// @Produce json
// @Security BearerAuth
// @Param id path string true "Hold ID"
// @Success 201 {object} resdto.PromoteHoldResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 410 {object} httperr.Response
// @Router /holds/{id}/promote [post]
func (h *HoldHandler) Promote(c *gin.Context) {
	id, ok := holdID(c)
	if !ok {
		return
	}

	result, err := h.holdCommands.PromoteHold(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrExpired):
			httperr.AbortWithError(c, http.StatusGone, err, "Hold has expired", nil)
		case errors.Is(err, errs.ErrConflict):
			httperr.AbortWithError(c, http.StatusConflict, err, "Hold was already promoted", nil)
		case errors.Is(err, errs.ErrNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Hold not found", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.PromoteHoldResponse{BookingID: result.BookingID})
}

func holdID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid hold ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}
