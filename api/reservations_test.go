package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courtsched/config"
	"courtsched/internal/domain"
	"courtsched/internal/service/reservation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockReservationUseCase is a mock implementation of reservation.ReservationUseCase
type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) Schedule(ctx context.Context) (*reservation.ScheduleWindow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.ScheduleWindow), args.Error(1)
}

func (m *MockReservationUseCase) ListForDate(ctx context.Context, date string) (map[string]domain.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) Create(ctx context.Context, input reservation.CreateReservationInput) (*domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) Cancel(ctx context.Context, input reservation.CancelReservationInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockReservationUseCase) PurgeBefore(ctx context.Context, date string) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

func testCourt() config.CourtConfig {
	return config.CourtConfig{
		Name:      "Neighborhood Tennis Court",
		TimeSlots: []string{"09:00", "10:00"},
		DaysAhead: 7,
	}
}

func TestReservationHandler_create(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, testCourt())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := reservation.CreateReservationInput{
		Date:       "2024-06-10",
		TimeSlot:   "09:00",
		PlayerName: "Alice",
		Password:   "secret",
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/reservations", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Reservation{
		ID:           1,
		Date:         "2024-06-10",
		TimeSlot:     "09:00",
		PlayerName:   "Alice",
		PasswordHash: "digest",
		CreatedAt:    time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC),
	}

	mockService.On("Create", c.Request.Context(), input).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response createReservationResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Reservation created successfully!", response.Message)
	assert.Equal(t, int64(1), response.Reservation.ID)
	assert.Equal(t, "Alice", response.Reservation.PlayerName)
	assert.True(t, response.Reservation.Protected)

	mockService.AssertExpectations(t)
}

func TestReservationHandler_create_slotTaken(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, testCourt())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := reservation.CreateReservationInput{
		Date:       "2024-06-10",
		TimeSlot:   "09:00",
		PlayerName: "Bob",
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/reservations", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Create", c.Request.Context(), input).Return(nil, domain.ErrSlotTaken)

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "This time slot is already booked.")

	mockService.AssertExpectations(t)
}

func TestReservationHandler_create_invalidInput(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, testCourt())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := reservation.CreateReservationInput{
		Date:     "2024-06-10",
		TimeSlot: "09:00",
	}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/reservations", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Create", c.Request.Context(), input).
		Return(nil, domain.ErrInvalidInput)

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertExpectations(t)
}

func TestReservationHandler_cancel(t *testing.T) {
	testCases := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			serviceErr: nil,
			wantStatus: http.StatusOK,
			wantBody:   "Reservation cancelled successfully!",
		},
		{
			name:       "not found",
			serviceErr: domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody:   "No reservation found for this time slot.",
		},
		{
			name:       "password required",
			serviceErr: domain.ErrPasswordRequired,
			wantStatus: http.StatusUnauthorized,
			wantBody:   "This reservation is password protected. Please enter the password.",
		},
		{
			name:       "password mismatch",
			serviceErr: domain.ErrPasswordMismatch,
			wantStatus: http.StatusForbidden,
			wantBody:   "Incorrect password.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockReservationUseCase{}
			handler := NewReservationHandler(mockService, testCourt())

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			body, _ := json.Marshal(cancelReservationRequest{Password: "secret"})
			c.Params = gin.Params{
				{Key: "date", Value: "2024-06-10"},
				{Key: "slot", Value: "09:00"},
			}
			c.Request = httptest.NewRequest("DELETE", "/reservations/2024-06-10/09:00", bytes.NewReader(body))
			c.Request.Header.Set("Content-Type", "application/json")

			mockService.On("Cancel", c.Request.Context(), reservation.CancelReservationInput{
				Date:     "2024-06-10",
				TimeSlot: "09:00",
				Password: "secret",
			}).Return(tc.serviceErr)

			handler.cancel(c)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)

			mockService.AssertExpectations(t)
		})
	}
}

func TestReservationHandler_cancel_noBody(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, testCourt())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{
		{Key: "date", Value: "2024-06-10"},
		{Key: "slot", Value: "09:00"},
	}
	c.Request = httptest.NewRequest("DELETE", "/reservations/2024-06-10/09:00", nil)

	mockService.On("Cancel", c.Request.Context(), reservation.CancelReservationInput{
		Date:     "2024-06-10",
		TimeSlot: "09:00",
	}).Return(nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	mockService.AssertExpectations(t)
}

func TestReservationHandler_schedule(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, testCourt())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/schedule", nil)

	window := &reservation.ScheduleWindow{
		Court: "Neighborhood Tennis Court",
		Dates: []string{"2024-06-10", "2024-06-11"},
		Days: map[string]map[string]domain.Reservation{
			"2024-06-10": {
				"09:00": {
					ID:           1,
					Date:         "2024-06-10",
					TimeSlot:     "09:00",
					PlayerName:   "Alice",
					PasswordHash: "digest",
				},
			},
		},
	}

	mockService.On("Schedule", c.Request.Context()).Return(window, nil)

	handler.schedule(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response scheduleResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Neighborhood Tennis Court", response.Court)
	assert.Equal(t, []string{"2024-06-10", "2024-06-11"}, response.Dates)
	assert.Equal(t, "Alice", response.Days["2024-06-10"]["09:00"].PlayerName)
	assert.True(t, response.Days["2024-06-10"]["09:00"].Protected)
	// the digest never leaves the API
	assert.NotContains(t, w.Body.String(), "digest")

	mockService.AssertExpectations(t)
}

func TestReservationHandler_day(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService, testCourt())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "date", Value: "2024-06-10"}}
	c.Request = httptest.NewRequest("GET", "/schedule/2024-06-10", nil)

	mockService.On("ListForDate", c.Request.Context(), "2024-06-10").Return(map[string]domain.Reservation{
		"09:00": {ID: 1, Date: "2024-06-10", TimeSlot: "09:00", PlayerName: "Alice"},
	}, nil)

	handler.day(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dayResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "2024-06-10", response.Date)
	assert.Len(t, response.Reservations, 1)

	mockService.AssertExpectations(t)
}

func TestReservationHandler_courtInfo(t *testing.T) {
	handler := NewReservationHandler(&MockReservationUseCase{}, testCourt())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/court", nil)

	handler.courtInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Neighborhood Tennis Court")
	assert.Contains(t, w.Body.String(), "09:00")
}
