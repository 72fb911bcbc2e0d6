//go:build e2e

package hold_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	reqdto "booking-engine/internal/handler/dto/request"
	"booking-engine/internal/handler/dto/response"
	"booking-engine/tests/common/dbtest"
	"booking-engine/tests/common/httptest"
	"booking-engine/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

const (
	holdsURL        = "/api/holds"
	availabilityURL = "/api/availability"
)

type HoldSuite struct {
	e2e.SharedSuite
}

func TestHoldSuite(t *testing.T) {
	suite.Run(t, new(HoldSuite))
}

type holdFixture struct {
	businessID     uuid.UUID
	resourceID     uuid.UUID
	bookableTypeID uuid.UUID
	slotStart      time.Time
}

func (s *HoldSuite) seedSpa(name string) holdFixture {
	businessID := dbtest.CreateBusiness(s.T(), s.Pool, name, "spa")
	resourceID := dbtest.CreateResource(s.T(), s.Pool, businessID, name+" room")
	typeID := dbtest.CreateBookableType(s.T(), s.Pool, businessID, "Massage", 60, 10000, resourceID)

	dbtest.AddWeeklyWindow(s.T(), s.Pool, resourceID, int(time.Wednesday), "09:00", "12:00")
	dbtest.AddWeeklyWindow(s.T(), s.Pool, resourceID, int(time.Wednesday), "13:00", "17:00")

	return holdFixture{
		businessID:     businessID,
		resourceID:     resourceID,
		bookableTypeID: typeID,
		slotStart:      nextWednesday().Add(10 * time.Hour),
	}
}

func nextWednesday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Wednesday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *HoldSuite) createRequest(f holdFixture, start time.Time) reqdto.CreateHoldRequest {
	return reqdto.CreateHoldRequest{
		ResourceID:     f.resourceID,
		BookableTypeID: f.bookableTypeID,
		Start:          start,
		End:            start.Add(time.Hour),
	}
}

func (s *HoldSuite) availableSlotCount(f holdFixture) int {
	day := time.Date(f.slotStart.Year(), f.slotStart.Month(), f.slotStart.Day(), 0, 0, 0, 0, time.UTC)
	url := fmt.Sprintf("%s?business_id=%s&bookable_type_id=%s&from=%s",
		availabilityURL, f.businessID, f.bookableTypeID, day.Format("2006-01-02"))

	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, url, nil, "")

	var body response.AvailabilityResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	return len(body.Slots)
}

func (s *HoldSuite) TestLifecycle() {
	f := s.seedSpa("Lifecycle Spa")
	req := s.createRequest(f, f.slotStart)

	s.Require().Equal(7, s.availableSlotCount(f))

	var holdID string

	s.Run("create claims the interval", func() {
		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, "session-lifecycle-a")

		var body response.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.EqualValues(10000, body.PriceCents)
		s.True(body.ExpiresAt.After(time.Now()))
		holdID = body.HoldID.String()

		s.Equal(6, s.availableSlotCount(f))
	})

	s.Run("competing create conflicts", func() {
		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, "session-lifecycle-b")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "already held")
	})

	s.Run("partial overlap conflicts too", func() {
		shifted := s.createRequest(f, f.slotStart.Add(30*time.Minute))
		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, shifted, "session-lifecycle-b")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "already held")
	})

	s.Run("release frees the interval", func() {
		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodDelete, holdsURL+"/"+holdID, nil, "session-lifecycle-a")
		s.Equal(http.StatusNoContent, rec.Code)

		s.Equal(7, s.availableSlotCount(f))
	})

	s.Run("released interval can be claimed again and promoted", func() {
		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, "session-lifecycle-b")

		var body response.HoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)

		rec = httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL+"/"+body.HoldID.String()+"/promote", nil, "session-lifecycle-b")

		var promoted response.PromoteHoldResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &promoted)
		s.NotEqual(uuid.Nil, promoted.BookingID)

		// the booking keeps blocking the slot
		s.Equal(6, s.availableSlotCount(f))

		// a promoted hold cannot be promoted twice
		rec = httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL+"/"+body.HoldID.String()+"/promote", nil, "session-lifecycle-b")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "already promoted")
	})
}

func (s *HoldSuite) TestRenewExtendsExpiry() {
	f := s.seedSpa("Renew Spa")
	req := s.createRequest(f, f.slotStart)

	rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, "session-renew")

	var created response.HoldResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)

	rec = httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL+"/"+created.HoldID.String()+"/renew", nil, "session-renew")

	var renewed response.RenewHoldResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &renewed)
	s.False(renewed.ExpiresAt.Before(created.ExpiresAt))
}

func (s *HoldSuite) TestValidation() {
	f := s.seedSpa("Validation Spa")

	s.Run("duration must match the bookable type", func() {
		req := s.createRequest(f, f.slotStart)
		req.End = req.Start.Add(90 * time.Minute)

		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, "session-validation")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("interval outside open hours is rejected", func() {
		req := s.createRequest(f, f.slotStart.Add(-7*time.Hour)) // 03:00, the spa is closed

		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, "session-validation")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "open hours")
	})

	s.Run("unknown resource yields 404", func() {
		req := s.createRequest(f, f.slotStart)
		req.ResourceID = uuid.New()

		rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, "session-validation")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "")
	})

	s.Run("identity is required", func() {
		req := s.createRequest(f, f.slotStart)
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, holdsURL, req, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

// TestConcurrentCreation races many sessions for one slot; the advisory lock
// in the write path must let exactly one through.
func (s *HoldSuite) TestConcurrentCreation() {
	f := s.seedSpa("Race Spa")
	req := s.createRequest(f, f.slotStart)

	const attempts = 8
	results := make([]int, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("session-race-%d", i)
			rec := httptest.PerformRequestWithSession(s.T(), s.Router, http.MethodPost, holdsURL, req, sessionID)
			results[i] = rec.Code
		}(i)
	}
	wg.Wait()

	created, conflicted := 0, 0
	for _, code := range results {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		}
	}
	s.Equal(1, created, "exactly one hold must win the race")
	s.Equal(attempts-1, conflicted)
}
