package api

import (
	"errors"
	"net/http"
	"time"

	"courtsched/config"
	"courtsched/internal/domain"
	"courtsched/internal/service/reservation"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service reservation.ReservationUseCase
	court   config.CourtConfig
}

type createReservationRequest struct {
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	PlayerName string `json:"player_name"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
}

type cancelReservationRequest struct {
	Password string `json:"password"`
}

// reservationResponse is what the schedule grid renders: no phone number,
// no digest, only a protected flag for the lock marker.
type reservationResponse struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	PlayerName string `json:"player_name"`
	Protected  bool   `json:"protected"`
	CreatedAt  string `json:"created_at"`
}

type scheduleResponse struct {
	Court string                                     `json:"court"`
	Dates []string                                   `json:"dates"`
	Days  map[string]map[string]reservationResponse `json:"days"`
}

type dayResponse struct {
	Date         string                         `json:"date"`
	Reservations map[string]reservationResponse `json:"reservations"`
}

type createReservationResponse struct {
	Message     string              `json:"message"`
	Reservation reservationResponse `json:"reservation"`
}

func NewReservationHandler(service reservation.ReservationUseCase, court config.CourtConfig) *ReservationHandler {
	return &ReservationHandler{service: service, court: court}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.GET("/court", h.courtInfo)
	router.GET("/schedule", h.schedule)
	router.GET("/schedule/:date", h.day)
	router.POST("/reservations", h.create)
	router.DELETE("/reservations/:date/:slot", h.cancel)
}

// courtInfo exposes the configuration the booking form needs: the slot
// labels to offer and how many days ahead are bookable.
func (h *ReservationHandler) courtInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":       h.court.Name,
		"time_slots": h.court.TimeSlots,
		"days_ahead": h.court.DaysAhead,
	})
}

func (h *ReservationHandler) schedule(c *gin.Context) {
	window, err := h.service.Schedule(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	days := make(map[string]map[string]reservationResponse, len(window.Days))
	for date, slots := range window.Days {
		views := make(map[string]reservationResponse, len(slots))
		for slot, res := range slots {
			views[slot] = toView(res)
		}
		days[date] = views
	}

	c.JSON(http.StatusOK, scheduleResponse{
		Court: window.Court,
		Dates: window.Dates,
		Days:  days,
	})
}

func (h *ReservationHandler) day(c *gin.Context) {
	date := c.Param("date")
	slots, err := h.service.ListForDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make(map[string]reservationResponse, len(slots))
	for slot, res := range slots {
		views[slot] = toView(res)
	}
	c.JSON(http.StatusOK, dayResponse{Date: date, Reservations: views})
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Create(c.Request.Context(), reservation.CreateReservationInput{
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		PlayerName: req.PlayerName,
		Phone:      req.Phone,
		Password:   req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createReservationResponse{
		Message:     "Reservation created successfully!",
		Reservation: toView(*res),
	})
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	var req cancelReservationRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	err := h.service.Cancel(c.Request.Context(), reservation.CancelReservationInput{
		Date:     c.Param("date"),
		TimeSlot: c.Param("slot"),
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled successfully!"})
}

// writeError maps reservation outcomes onto HTTP statuses. The messages
// mirror what players see in the booking UI.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "This time slot is already booked."})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No reservation found for this time slot."})
	case errors.Is(err, domain.ErrPasswordRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This reservation is password protected. Please enter the password."})
	case errors.Is(err, domain.ErrPasswordMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Incorrect password."})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func toView(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         res.ID,
		Date:       res.Date,
		TimeSlot:   res.TimeSlot,
		PlayerName: res.PlayerName,
		Protected:  res.Protected(),
		CreatedAt:  res.CreatedAt.Format(time.RFC3339),
	}
}
