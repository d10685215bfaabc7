package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/ameyrk91/fitbooking/internal/kafka"
	"github.com/ameyrk91/fitbooking/internal/repository"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID int64) error
	ListForClient(ctx context.Context, email string) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	ClassID     int64  `json:"class_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
}

type BookingService struct {
	bookings    repository.BookingRepository
	classes     repository.ClassRepository
	producer    Producer
	eventsTopic string
	log         *zap.Logger
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	classes repository.ClassRepository,
	log *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		classes:  classes,
		log:      log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Create books one slot for a client. Gates run in a fixed order: input
// shape, class exists, class not expired, no duplicate, capacity. The last
// three are re-checked by the repository under the class row lock, so the
// reads here are advisory and the transaction is the source of truth.
func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	s.log.Info("booking requested",
		zap.Int64("class_id", input.ClassID),
		zap.String("client_email", input.ClientEmail))

	if strings.TrimSpace(input.ClientName) == "" {
		s.log.Warn("booking rejected: missing client name", zap.Int64("class_id", input.ClassID))
		return nil, fmt.Errorf("%w: client_name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(input.ClientEmail) == "" {
		s.log.Warn("booking rejected: missing client email", zap.Int64("class_id", input.ClassID))
		return nil, fmt.Errorf("%w: client_email is required", domain.ErrValidation)
	}

	class, err := s.classes.GetByID(ctx, input.ClassID)
	if err != nil {
		return nil, err
	}
	if class.Expired(time.Now()) {
		s.log.Warn("booking rejected: class expired",
			zap.Int64("class_id", input.ClassID),
			zap.Time("date_time", class.DateTime))
		return nil, domain.ErrClassExpired
	}

	booking := &domain.Booking{
		ClassID:     input.ClassID,
		ClientName:  strings.TrimSpace(input.ClientName),
		ClientEmail: strings.TrimSpace(input.ClientEmail),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		switch err {
		case domain.ErrNoSlots:
			s.log.Warn("booking rejected: no capacity",
				zap.Int64("class_id", input.ClassID),
				zap.String("client_email", booking.ClientEmail))
		case domain.ErrDuplicateBooking:
			s.log.Warn("booking rejected: duplicate",
				zap.Int64("class_id", input.ClassID),
				zap.String("client_email", booking.ClientEmail))
		}
		return nil, err
	}

	s.log.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("class_id", booking.ClassID),
		zap.String("client_email", booking.ClientEmail))
	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

// Cancel removes the booking and returns its slot atomically.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64) error {
	booking, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		return err
	}

	s.log.Info("booking cancelled",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("class_id", booking.ClassID))
	s.publish(ctx, "booking_cancelled", booking)
	return nil
}

// ListForClient returns the client's bookings, newest first. An empty email
// yields an empty list rather than an error.
func (s *BookingService) ListForClient(ctx context.Context, email string) ([]domain.Booking, error) {
	if strings.TrimSpace(email) == "" {
		return []domain.Booking{}, nil
	}
	return s.bookings.ListByEmail(ctx, email)
}

// publish is best-effort: event delivery never fails a committed booking.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		BookingID:   booking.ID,
		ClassID:     booking.ClassID,
		ClientEmail: booking.ClientEmail,
		BookingTime: booking.BookingTime,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, strconv.FormatInt(booking.ID, 10), event); err != nil {
		s.log.Warn("publish booking event failed",
			zap.String("type", eventType),
			zap.Int64("booking_id", booking.ID),
			zap.Error(err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
