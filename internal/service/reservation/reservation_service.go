package reservation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"courtsched/config"
	"courtsched/internal/domain"
	"courtsched/internal/kafka"
	"courtsched/internal/repository"

	"github.com/google/uuid"
)

type ReservationUseCase interface {
	Schedule(ctx context.Context) (*ScheduleWindow, error)
	ListForDate(ctx context.Context, date string) (map[string]domain.Reservation, error)
	Create(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error)
	Cancel(ctx context.Context, input CancelReservationInput) error
	PurgeBefore(ctx context.Context, date string) (int64, error)
}

type Cache interface {
	GetSchedule(ctx context.Context) (map[string]map[string]domain.Reservation, error)
	SetSchedule(ctx context.Context, days map[string]map[string]domain.Reservation) error
	InvalidateSchedule(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ReservationService struct {
	reservations repository.ReservationRepository
	cache        Cache
	producer     Producer
	eventsTopic  string
	court        config.CourtConfig
	now          func() time.Time
}

type CreateReservationInput struct {
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	PlayerName string `json:"player_name"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
}

type CancelReservationInput struct {
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
	Password string `json:"password"`
}

// ScheduleWindow is the prefetched lookahead view: every date of the
// window in order, plus the booked slots per date. Dates with no bookings
// are absent from Days.
type ScheduleWindow struct {
	Court string
	Dates []string
	Days  map[string]map[string]domain.Reservation
}

type ReservationServiceOption func(*ReservationService)

// WithClock overrides the time source anchoring the lookahead window.
func WithClock(now func() time.Time) ReservationServiceOption {
	return func(s *ReservationService) {
		s.now = now
	}
}

func NewReservationService(
	reservations repository.ReservationRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	court config.CourtConfig,
	opts ...ReservationServiceOption,
) *ReservationService {
	service := &ReservationService{
		reservations: reservations,
		cache:        cache,
		producer:     producer,
		eventsTopic:  eventsTopic,
		court:        court,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

const dateLayout = "2006-01-02"

// Schedule returns the reservations for the configured lookahead window
// starting today, read through the cache when one is wired.
func (s *ReservationService) Schedule(ctx context.Context) (*ScheduleWindow, error) {
	dates := s.windowDates()
	window := &ScheduleWindow{Court: s.court.Name, Dates: dates}

	if s.cache != nil {
		if cached, err := s.cache.GetSchedule(ctx); err == nil && cached != nil {
			window.Days = cached
			return window, nil
		}
	}

	days, err := s.reservations.ListForRange(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSchedule(ctx, days)
	}

	window.Days = days
	return window, nil
}

func (s *ReservationService) ListForDate(ctx context.Context, date string) (map[string]domain.Reservation, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, date)
	}
	return s.reservations.ListForDate(ctx, date)
}

// Create validates the booking and performs a single atomic insert. There
// is deliberately no availability check beforehand: the unique constraint
// decides the race, so of two concurrent bookings for one slot exactly one
// succeeds even when both saw the slot free.
func (s *ReservationService) Create(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error) {
	input.PlayerName = strings.TrimSpace(input.PlayerName)
	if input.PlayerName == "" {
		return nil, fmt.Errorf("%w: player name is required", domain.ErrInvalidInput)
	}
	if err := s.validateSlot(input.Date, input.TimeSlot); err != nil {
		return nil, err
	}

	res := &domain.Reservation{
		Date:       input.Date,
		TimeSlot:   input.TimeSlot,
		PlayerName: input.PlayerName,
		Phone:      strings.TrimSpace(input.Phone),
	}
	if input.Password != "" {
		res.PasswordHash = hashPassword(input.Password)
	}

	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	s.invalidateSchedule(ctx)
	s.publish(ctx, "reservation_created", res)
	return res, nil
}

// Cancel removes the reservation for the slot. The password rules live in
// the store transaction; the service only turns the supplied password into
// a digest (empty stays empty, meaning none supplied).
func (s *ReservationService) Cancel(ctx context.Context, input CancelReservationInput) error {
	if err := s.validateSlot(input.Date, input.TimeSlot); err != nil {
		return err
	}

	digest := ""
	if input.Password != "" {
		digest = hashPassword(input.Password)
	}

	cancelled, err := s.reservations.Cancel(ctx, input.Date, input.TimeSlot, digest)
	if err != nil {
		return err
	}

	s.invalidateSchedule(ctx)
	s.publish(ctx, "reservation_cancelled", cancelled)
	return nil
}

// PurgeBefore deletes reservations dated before the given day and returns
// how many rows went away. Called by the worker's retention sweep.
func (s *ReservationService) PurgeBefore(ctx context.Context, date string) (int64, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return 0, fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, date)
	}
	return s.reservations.DeleteBefore(ctx, date)
}

func (s *ReservationService) validateSlot(date, timeSlot string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, date)
	}
	for _, slot := range s.court.TimeSlots {
		if slot == timeSlot {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown time slot %q", domain.ErrInvalidInput, timeSlot)
}

func (s *ReservationService) windowDates() []string {
	today := s.now()
	dates := make([]string, s.court.DaysAhead)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i).Format(dateLayout)
	}
	return dates
}

func (s *ReservationService) invalidateSchedule(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSchedule(ctx); err != nil {
		log.Printf("invalidate schedule cache: %v", err)
	}
}

func (s *ReservationService) publish(ctx context.Context, eventType string, res *domain.Reservation) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:       eventType,
		EventID:    uuid.NewString(),
		Date:       res.Date,
		TimeSlot:   res.TimeSlot,
		PlayerName: res.PlayerName,
		Protected:  res.Protected(),
		CreatedAt:  res.CreatedAt,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.EventID, event); err != nil {
		log.Printf("publish %s event for %s %s: %v", eventType, res.Date, res.TimeSlot, err)
	}
}

// hashPassword returns the unsalted sha256 hex digest that gates
// cancellation. Digest equality is the whole check; this is a deterrent
// for a neighborhood court, not a credential store.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

var _ ReservationUseCase = (*ReservationService)(nil)
