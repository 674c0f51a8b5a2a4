package service

import (
	"context"

	d "github.com/MAB12-Star/hotel-management/domain"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/MAB12-Star/hotel-management/internal/service")

type RoomCatalog interface {
	GetRoom(ctx context.Context, slug string) (*d.Room, error)
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params *d.CheckoutSessionParams) (*d.SessionHandle, error)
}

// SessionLedger records every provider session the service opens.
type SessionLedger interface {
	CreateCheckoutSession(ctx context.Context, session *d.CheckoutSession) error
	GetCheckoutSessionByIdempotencyKey(ctx context.Context, key string) (*d.CheckoutSession, error)
}

type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (*d.PaymentEvent, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, record *d.BookingRecord) (*d.BookingRecord, bool, error)
	MarkFulfilled(ctx context.Context, bookingID string) error
}

type RoomUpdater interface {
	UpdateRoomAvailability(ctx context.Context, roomRef, bookingID string) (bool, error)
}

type CheckoutInitiator interface {
	InitiateCheckout(ctx context.Context, request *d.CheckoutRequest) (*d.SessionHandle, error)
}

type WebhookHandler interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) (Outcome, error)
}
