package http

import (
	"context"
	"net/http"
	"time"

	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	RequestTimeout time.Duration
	ServiceName    string
}

func NewRouter(cfg RouterConfig, checkout *CheckoutHandler, webhook *WebhookHandler, health HealthChecker, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health.Ping(r.Context()); err != nil {
				log.WithContext(r.Context()).WithError(err).Warn("health check failed")
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Compress(5)).Post("/stripe", checkout.CreateCheckoutSession)
		r.Post("/webhook", webhook.HandleWebhook)
	})

	name := cfg.ServiceName
	if name == "" {
		name = "booking-service"
	}
	return otelhttp.NewHandler(r, name)
}
