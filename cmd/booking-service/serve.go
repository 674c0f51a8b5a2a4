package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MAB12-Star/hotel-management/internal/catalog"
	"github.com/MAB12-Star/hotel-management/internal/config"
	h "github.com/MAB12-Star/hotel-management/internal/http"
	"github.com/MAB12-Star/hotel-management/internal/identity"
	"github.com/MAB12-Star/hotel-management/internal/payment"
	"github.com/MAB12-Star/hotel-management/internal/publisher"
	"github.com/MAB12-Star/hotel-management/internal/repository"
	"github.com/MAB12-Star/hotel-management/internal/service"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	skipMigrate bool
	disablePoll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the checkout API, the webhook receiver and the outbox poller",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to :$HTTP_PORT)")
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on startup")
	serveCmd.Flags().BoolVar(&disablePoll, "no-outbox", false, "do not start the outbox poller")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer log.Close()

	// Booking store
	cred := credentials(cfg)
	repo, err := repository.NewRepository(cred)
	if err != nil {
		return fmt.Errorf("failed to connect to booking store: %w", err)
	}
	defer repo.Close()

	// Room catalog
	rooms, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("failed to open room catalog: %w", err)
	}
	defer rooms.Close()

	if !skipMigrate {
		if err := repo.RunMigrations(cred); err != nil {
			return err
		}
		if err := rooms.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
			return err
		}
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	roomCatalog := catalog.NewCatalog(rooms, catalog.NewRedisCache(redisClient, cfg.CatalogCacheTTL), log)

	payments := payment.NewStripeProvider(payment.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Timeout:       cfg.StripeTimeout,
	}, log)

	checkoutService := service.NewCheckoutService(roomCatalog, payments, repo, service.CheckoutOptions{
		Currency:      cfg.Currency,
		PublicBaseURL: cfg.PublicBaseURL,
	}, log)
	fulfillmentService := service.NewFulfillmentService(payments, repo, repo, cfg.RequestTimeout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !disablePoll {
		poller := publisher.NewOutboxPoller(repo, fulfillmentService, publisher.Options{
			Topic:        cfg.OutboxTopic,
			EventTick:    cfg.OutboxPollInterval,
			RecoveryTick: cfg.RecoveryInterval,
			StuckAfter:   cfg.StuckBookingTimeout,
		}, log, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(ctx)
	}

	router := h.NewRouter(
		h.RouterConfig{RequestTimeout: cfg.RequestTimeout},
		h.NewCheckoutHandler(checkoutService, identity.NewResolver(cfg.AuthJWTSecret, cfg.AuthSessionCookie), cfg.RequestTimeout, log),
		h.NewWebhookHandler(fulfillmentService, cfg.MaxWebhookBodySize, cfg.RequestTimeout, log),
		repo,
		log,
	)

	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.HTTPPort
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("booking service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
