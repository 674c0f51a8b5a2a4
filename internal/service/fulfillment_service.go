package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	d "github.com/MAB12-Star/hotel-management/domain"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Outcome tells the transport how a verified delivery was handled. Every
// outcome is acknowledged to the provider.
type Outcome string

const (
	OutcomeFulfilled Outcome = "fulfilled"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeMalformed Outcome = "malformed"
)

type FulfillmentService struct {
	verifier EventVerifier
	bookings BookingStore
	rooms    RoomUpdater
	timeout  time.Duration
	log      *logger.Logger
}

func NewFulfillmentService(verifier EventVerifier, bookings BookingStore, rooms RoomUpdater, timeout time.Duration, log *logger.Logger) *FulfillmentService {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &FulfillmentService{
		verifier: verifier,
		bookings: bookings,
		rooms:    rooms,
		timeout:  timeout,
		log:      log,
	}
}

// HandleEvent verifies a webhook delivery and applies it. A returned error
// means the delivery must not be acknowledged: either the signature did not
// verify or a store write failed and the provider should redeliver.
func (s *FulfillmentService) HandleEvent(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "FulfillmentService.HandleEvent")
	defer span.End()

	if signature == "" {
		err := fmt.Errorf("%w: missing signature", d.ErrAuthentication)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	event, err := s.verifier.ConstructEvent(payload, signature)
	if errors.Is(err, d.ErrMalformedEvent) {
		s.log.WithContext(ctx).WithError(err).Error("verified event could not be decoded")
		return OutcomeMalformed, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "signature verification failed")
		return "", err
	}

	span.SetAttributes(attribute.String("event.id", event.ID), attribute.String("event.type", event.Type))
	log := s.log.WithContext(ctx).WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})

	switch event.Type {
	case d.EventTypeCheckoutSessionCompleted:
		outcome, err := s.checkoutCompleted(ctx, log, event)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return outcome, err
	default:
		log.Debug("unhandled event type")
		return OutcomeIgnored, nil
	}
}

func (s *FulfillmentService) checkoutCompleted(ctx context.Context, log *logrus.Entry, event *d.PaymentEvent) (Outcome, error) {
	log = log.WithField("checkout_session_id", event.SessionID)

	if len(event.Metadata) == 0 {
		log.Error("metadata is empty for checkout session")
		return OutcomeMalformed, nil
	}

	meta, err := d.DecodeSessionMetadata(event.Metadata)
	if err != nil {
		log.WithError(err).Error("checkout session metadata rejected")
		return OutcomeMalformed, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	booking, created, err := s.bookings.CreateBooking(ctx, d.NewBookingRecord(event.SessionID, meta))
	if err != nil {
		log.WithError(err).Error("failed to create booking")
		return "", fmt.Errorf("%w: create booking: %w", d.ErrStore, err)
	}

	log = log.WithField("booking_id", booking.ID)
	if booking.Status.IsTerminal() {
		log.Info("checkout session already fulfilled")
		return OutcomeDuplicate, nil
	}
	if !created {
		log.Info("resuming fulfillment of existing booking")
	}

	if err := s.CompleteBooking(ctx, booking); err != nil {
		log.WithError(err).Error("failed to complete booking")
		return "", err
	}

	log.WithField("room_ref", booking.RoomRef).Info("booking fulfilled")
	return OutcomeFulfilled, nil
}

// CompleteBooking applies the room availability change for a FULFILLING
// booking and marks it FULFILLED. Both steps are idempotent, so it is safe to
// call again after a partial failure.
func (s *FulfillmentService) CompleteBooking(ctx context.Context, booking *d.BookingRecord) error {
	if booking.Status.IsTerminal() {
		return nil
	}
	if !d.CanTransitionTo(booking.Status, d.FulfillmentStatusFulfilled) {
		return fmt.Errorf("%w: booking %s is %s", d.IllegalTransitionError, booking.ID, booking.Status)
	}

	applied, err := s.rooms.UpdateRoomAvailability(ctx, booking.RoomRef, booking.ID)
	if err != nil {
		return fmt.Errorf("%w: update room availability: %w", d.ErrStore, err)
	}
	if !applied {
		s.log.WithContext(ctx).WithField("booking_id", booking.ID).Debug("room availability already updated")
	}

	if err := s.bookings.MarkFulfilled(ctx, booking.ID); err != nil {
		return fmt.Errorf("%w: mark booking fulfilled: %w", d.ErrStore, err)
	}
	booking.Status = d.FulfillmentStatusFulfilled
	return nil
}
