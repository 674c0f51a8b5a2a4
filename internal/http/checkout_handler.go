package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	d "github.com/MAB12-Star/hotel-management/domain"
	"github.com/MAB12-Star/hotel-management/internal/service"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

const maxCheckoutBodySize = 1 << 20

// IdentityResolver maps a request to the signed-in user ID.
type IdentityResolver interface {
	Resolve(r *http.Request) (string, error)
}

type CheckoutHandler struct {
	checkout service.CheckoutInitiator
	identity IdentityResolver
	timeout  time.Duration
	log      *logger.Logger
}

func NewCheckoutHandler(checkout service.CheckoutInitiator, identity IdentityResolver, timeout time.Duration, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		identity: identity,
		timeout:  timeout,
		log:      log,
	}
}

// POST /api/stripe
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var booking d.BookingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBodySize)).Decode(&booking); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// An unresolved identity is passed on as empty so that field validation
	// is still reported first.
	userID, err := h.identity.Resolve(r)
	if err != nil {
		h.log.WithContext(ctx).WithError(err).Debug("request has no valid session")
	}

	handle, err := h.checkout.InitiateCheckout(ctx, &d.CheckoutRequest{
		Booking:        booking,
		UserID:         userID,
		Origin:         r.Header.Get("Origin"),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, handle)
}

func (h *CheckoutHandler) handleError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *d.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid booking request",
			Code:   "validation_failed",
			Fields: verr.Fields,
		})
	case errors.Is(err, d.ErrAuthentication):
		respondError(w, http.StatusBadRequest, "unauthenticated", "sign in to book a room")
	case errors.Is(err, d.ErrNotFound):
		respondError(w, http.StatusNotFound, "room_not_found", "room not found")
	default:
		h.log.WithContext(ctx).WithError(err).
			WithField("request_id", middleware.GetReqID(ctx)).
			Error("checkout session creation failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
