package publisher

import (
	"context"
	"time"

	d "github.com/MAB12-Star/hotel-management/domain"
	r "github.com/MAB12-Star/hotel-management/internal/repository"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const batchSize = 100

// OutboxStore is the slice of the booking repository the poller drives.
type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*r.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int) error
	GetStuckBookings(ctx context.Context, olderThan time.Duration, limit int) ([]*d.BookingRecord, error)
}

// BookingCompleter finishes a booking that stopped between commit and fulfillment.
type BookingCompleter interface {
	CompleteBooking(ctx context.Context, booking *d.BookingRecord) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Options struct {
	Topic        string
	EventTick    time.Duration
	RecoveryTick time.Duration
	StuckAfter   time.Duration
	Timeout      time.Duration
}

type OutboxPoller struct {
	opts      Options
	repo      OutboxStore
	completer BookingCompleter
	writer    messageWriter
	log       *logger.Logger
}

func NewOutboxPoller(repo OutboxStore, completer BookingCompleter, opts Options, log *logger.Logger, brokers ...string) *OutboxPoller {
	if opts.Topic == "" {
		opts.Topic = "booking-outbox"
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  opts.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, completer, opts, log, w)
}

func newOutboxPoller(repo OutboxStore, completer BookingCompleter, opts Options, log *logger.Logger, w messageWriter) *OutboxPoller {
	if opts.EventTick == 0 {
		opts.EventTick = time.Second
	}
	if opts.RecoveryTick == 0 {
		opts.RecoveryTick = 30 * time.Second
	}
	if opts.StuckAfter == 0 {
		opts.StuckAfter = 2 * time.Minute
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return &OutboxPoller{opts: opts, repo: repo, completer: completer, writer: w, log: log}
}

// Run relays outbox events and recovers stuck bookings until ctx is done.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.opts.EventTick)
	recoveryTicker := time.NewTicker(p.opts.RecoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckBookings(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		p.log.WithError(err).Error("failed to fetch outbox events")
		return
	}

	for _, event := range events {
		log := p.log.WithField("outbox_id", event.ID).WithField("event_type", event.EventType)
		if err := p.publishToKafka(ctx, event); err != nil {
			log.WithError(err).Error("failed to publish outbox event")
			continue
		}
		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			log.WithError(err).Error("failed to mark outbox event as processed")
		}
	}
}

// recoverStuckBookings resumes bookings committed as FULFILLING whose
// availability update or final status write never landed.
func (p *OutboxPoller) recoverStuckBookings(ctx context.Context) {
	bookings, err := p.repo.GetStuckBookings(ctx, p.opts.StuckAfter, batchSize)
	if err != nil {
		p.log.WithError(err).Error("failed to get stuck bookings")
		return
	}
	for _, booking := range bookings {
		log := p.log.WithField("booking_id", booking.ID).WithField("checkout_session_id", booking.CheckoutSessionID)
		log.Warn("recovering stuck booking")

		cctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		err := p.completer.CompleteBooking(cctx, booking)
		cancel()
		if err != nil {
			log.WithError(err).Error("failed to recover booking")
			continue
		}
		log.Info("booking recovered")
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // booking id keeps per-booking ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, msg)
}
