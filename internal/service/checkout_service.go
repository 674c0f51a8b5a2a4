package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	d "github.com/MAB12-Star/hotel-management/domain"
	r "github.com/MAB12-Star/hotel-management/internal/repository"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type CheckoutOptions struct {
	Currency       string
	PublicBaseURL  string
	CatalogTimeout time.Duration
}

type CheckoutService struct {
	catalog  RoomCatalog
	payments PaymentProvider
	ledger   SessionLedger
	opts     CheckoutOptions
	log      *logger.Logger
}

func NewCheckoutService(catalog RoomCatalog, payments PaymentProvider, ledger SessionLedger, opts CheckoutOptions, log *logger.Logger) *CheckoutService {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.CatalogTimeout == 0 {
		opts.CatalogTimeout = 5 * time.Second
	}
	return &CheckoutService{
		catalog:  catalog,
		payments: payments,
		ledger:   ledger,
		opts:     opts,
		log:      log,
	}
}

// InitiateCheckout validates the request, prices the stay and opens a
// provider session carrying the booking metadata. Nothing is persisted as a
// booking here; that happens when the provider confirms payment.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, request *d.CheckoutRequest) (*d.SessionHandle, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.InitiateCheckout")
	defer span.End()

	handle, err := s.initiate(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("checkout.session_id", handle.ID))
	return handle, nil
}

func (s *CheckoutService) initiate(ctx context.Context, request *d.CheckoutRequest) (*d.SessionHandle, error) {
	stay, err := request.Booking.Validate()
	if err != nil {
		return nil, err
	}

	if request.UserID == "" {
		return nil, fmt.Errorf("%w: sign in to book a room", d.ErrAuthentication)
	}

	log := s.log.WithContext(ctx).WithFields(logrus.Fields{
		"user_id":   request.UserID,
		"room_slug": stay.RoomSlug,
	})

	if request.IdempotencyKey != "" {
		existing, err := s.replay(ctx, request)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			log.WithField("checkout_session_id", existing.ID).Info("duplicate checkout request, returning existing session")
			return existing, nil
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.CatalogTimeout)
	room, err := s.catalog.GetRoom(lookupCtx, stay.RoomSlug)
	cancel()
	if err != nil {
		if errors.Is(err, d.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup room %q: %w", stay.RoomSlug, err)
	}

	priced, err := d.NewPricedCheckout(stay, room, request.UserID)
	if err != nil {
		return nil, err
	}

	origin := s.origin(request.Origin)
	params := &d.CheckoutSessionParams{
		ProductName:    room.Name,
		ProductImages:  room.Images,
		AmountMinor:    d.MinorUnits(priced.TotalPrice),
		Currency:       s.opts.Currency,
		SuccessURL:     origin + "/users/" + url.PathEscape(request.UserID),
		CancelURL:      origin + "/rooms/" + url.PathEscape(room.Slug),
		Metadata:       priced.Metadata().Encode(),
		IdempotencyKey: request.IdempotencyKey,
	}

	handle, err := s.payments.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, err
	}

	s.record(ctx, log, request, priced, handle)

	log.WithFields(logrus.Fields{
		"checkout_session_id": handle.ID,
		"total_price":         priced.TotalPrice.String(),
	}).Info("checkout session created")
	return handle, nil
}

// replay returns the session previously opened for the request's idempotency key, if any.
func (s *CheckoutService) replay(ctx context.Context, request *d.CheckoutRequest) (*d.SessionHandle, error) {
	existing, err := s.ledger.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	if errors.Is(err, r.ErrIdempotencyKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}

	if existing.UserID != request.UserID {
		verr := d.NewValidationError()
		verr.Add("idempotencyKey", "was used by another request")
		return nil, verr
	}
	return &d.SessionHandle{ID: existing.ID, URL: existing.URL}, nil
}

// record writes the ledger row. The provider session already exists at this
// point, so a failure is logged and the handle is still returned.
func (s *CheckoutService) record(ctx context.Context, log *logrus.Entry, request *d.CheckoutRequest, priced *d.PricedCheckout, handle *d.SessionHandle) {
	session := &d.CheckoutSession{
		ID:         handle.ID,
		UserID:     request.UserID,
		RoomRef:    priced.RoomRef,
		URL:        handle.URL,
		TotalPrice: priced.TotalPrice,
		Status:     d.FulfillmentStatusCreated,
	}
	if request.IdempotencyKey != "" {
		key := request.IdempotencyKey
		session.IdempotencyKey = &key
	}

	err := s.ledger.CreateCheckoutSession(ctx, session)
	switch {
	case err == nil:
	case errors.Is(err, r.ErrDuplicateIdempotencyKey):
		log.WithField("checkout_session_id", handle.ID).Debug("checkout session already recorded")
	default:
		log.WithError(err).WithField("checkout_session_id", handle.ID).Error("failed to record checkout session")
	}
}

func (s *CheckoutService) origin(requestOrigin string) string {
	origin := strings.TrimSpace(requestOrigin)
	if origin == "" || origin == "null" {
		origin = s.opts.PublicBaseURL
	}
	return strings.TrimRight(origin, "/")
}
