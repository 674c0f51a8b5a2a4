package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MAB12-Star/hotel-management/internal/service"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
)

const signatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	events      service.WebhookHandler
	maxBodySize int64
	timeout     time.Duration
	log         *logger.Logger
}

func NewWebhookHandler(events service.WebhookHandler, maxBodySize int64, timeout time.Duration, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		events:      events,
		maxBodySize: maxBodySize,
		timeout:     timeout,
		log:         log,
	}
}

type WebhookResponseDTO struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

// POST /api/webhook
//
// The body is read raw because the signature covers the exact bytes sent.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read body")
		return
	}

	outcome, err := h.events.HandleEvent(ctx, payload, r.Header.Get(signatureHeader))
	if err != nil {
		h.log.WithContext(ctx).WithError(err).Error("webhook delivery not acknowledged")
		respondError(w, http.StatusInternalServerError, "webhook_error", "webhook handling failed")
		return
	}

	respondJSON(w, http.StatusOK, WebhookResponseDTO{Received: true, Outcome: string(outcome)})
}
