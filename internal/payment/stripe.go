package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/MAB12-Star/hotel-management/pkg/circuitbreaker"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeProvider opens hosted checkout sessions and verifies webhook deliveries.
type StripeProvider struct {
	sessions      sessionCreator
	webhookSecret string
	timeout       time.Duration
	breaker       *circuitbreaker.Breaker[*stripe.CheckoutSession]
	log           *logger.Logger
}

func NewStripeProvider(cfg Config, log *logger.Logger) *StripeProvider {
	client := &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey}
	return newStripeProvider(client, cfg, log)
}

func newStripeProvider(sessions sessionCreator, cfg Config, log *logger.Logger) *StripeProvider {
	p := &StripeProvider{
		sessions:      sessions,
		webhookSecret: cfg.WebhookSecret,
		timeout:       cfg.Timeout,
		log:           log,
	}
	p.breaker = circuitbreaker.New[*stripe.CheckoutSession](circuitbreaker.Settings{
		Name:             "stripe-checkout",
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
		Excluded:         isClientError,
		OnStateChange: func(name, from, to string) {
			log.WithField("breaker", name).Warnf("circuit breaker state changed from %s to %s", from, to)
		},
	})
	return p
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in *domain.CheckoutSessionParams) (*domain.SessionHandle, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(in.SuccessURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(in.Currency),
					UnitAmount: stripe.Int64(in.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:   stripe.String(in.ProductName),
						Images: stripe.StringSlice(in.ProductImages),
					},
				},
			},
		},
	}
	if in.CancelURL != "" {
		params.CancelURL = stripe.String(in.CancelURL)
	}
	params.Context = callCtx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	s, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %w", domain.ErrPaymentProvider, err)
	}

	return &domain.SessionHandle{ID: s.ID, URL: s.URL}, nil
}

// ConstructEvent checks the Stripe-Signature header against the exact payload
// bytes before decoding anything.
func (p *StripeProvider) ConstructEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", domain.ErrAuthentication)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", domain.ErrAuthentication)
	}

	if err := webhook.ValidatePayload(payload, signature, p.webhookSecret); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %w: decode event: %v", domain.ErrPaymentProvider, domain.ErrMalformedEvent, err)
	}

	out := &domain.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return out, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", domain.ErrMalformedEvent, event.ID)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", domain.ErrMalformedEvent, err)
	}
	if cs.ID == "" {
		return nil, fmt.Errorf("%w: event %s has no checkout session id", domain.ErrMalformedEvent, event.ID)
	}

	out.SessionID = cs.ID
	out.Metadata = cs.Metadata
	return out, nil
}

// isClientError keeps rejected requests from tripping the breaker; only
// outages and throttling count against Stripe's health.
func isClientError(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.HTTPStatusCode >= http.StatusBadRequest &&
		se.HTTPStatusCode < http.StatusInternalServerError &&
		se.HTTPStatusCode != http.StatusTooManyRequests
}
