package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/google/uuid"
)

const EventTypeBookingConfirmed = "BookingConfirmed"

const bookingColumns = `id, checkout_session_id, adults, children, checkin_date, checkout_date, no_of_days,
	room_ref, user_ref, discount, total_price, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateBooking inserts the booking keyed by its checkout session. When a
// booking for that session already exists it is returned with created=false
// and nothing is written. A new booking enqueues a BookingConfirmed outbox
// event in the same transaction.
func (r *Repository) CreateBooking(ctx context.Context, b *domain.BookingRecord) (*domain.BookingRecord, bool, error) {
	var out *domain.BookingRecord
	var created bool

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id := uuid.NewString()
		query := `INSERT INTO bookings (id, checkout_session_id, adults, children, checkin_date, checkout_date, no_of_days,
		                                room_ref, user_ref, discount, total_price, status, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		          ON CONFLICT (checkout_session_id) DO NOTHING
		          RETURNING ` + bookingColumns

		row := tx.QueryRowContext(ctx, query,
			id,
			b.CheckoutSessionID,
			b.Adults,
			b.Children,
			b.CheckinDate,
			b.CheckoutDate,
			b.NoOfDays,
			b.RoomRef,
			b.UserRef,
			b.Discount,
			b.TotalPrice,
			domain.FulfillmentStatusFulfilling)

		inserted, err := scanBooking(row)
		if errors.Is(err, sql.ErrNoRows) {
			existing, errGet := scanBooking(tx.QueryRowContext(ctx,
				`SELECT `+bookingColumns+` FROM bookings WHERE checkout_session_id = $1`, b.CheckoutSessionID))
			if errGet != nil {
				return fmt.Errorf("load existing booking: %w", errGet)
			}
			out = existing
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		if err := insertOutboxEvent(ctx, tx, inserted.ID, EventTypeBookingConfirmed, bookingConfirmedPayload(inserted)); err != nil {
			return err
		}
		if err := advanceCheckoutSession(ctx, tx, inserted.CheckoutSessionID, domain.FulfillmentStatusFulfilling); err != nil {
			return err
		}

		out = inserted
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (r *Repository) GetBookingBySessionID(ctx context.Context, sessionID string) (*domain.BookingRecord, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE checkout_session_id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query booking by session id: %w", err)
	}
	return b, nil
}

// MarkFulfilled moves a FULFILLING booking, and its ledger row, to FULFILLED.
// Marking an already fulfilled booking is a no-op.
func (r *Repository) MarkFulfilled(ctx context.Context, bookingID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var status domain.FulfillmentStatus
		var sessionID string
		err := tx.QueryRowContext(ctx,
			`SELECT status, checkout_session_id FROM bookings WHERE id = $1 FOR UPDATE`, bookingID).Scan(&status, &sessionID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}

		if status.IsTerminal() {
			return nil
		}
		if !domain.CanTransitionTo(status, domain.FulfillmentStatusFulfilled) {
			return domain.IllegalTransitionError
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`,
			domain.FulfillmentStatusFulfilled, bookingID); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		return advanceCheckoutSession(ctx, tx, sessionID, domain.FulfillmentStatusFulfilled)
	})
}

// GetStuckBookings returns bookings left in FULFILLING for longer than olderThan.
func (r *Repository) GetStuckBookings(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.BookingRecord, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status = $1 AND updated_at < $2
	          ORDER BY updated_at
	          LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, domain.FulfillmentStatusFulfilling, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("query stuck bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.BookingRecord
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (*domain.BookingRecord, error) {
	var b domain.BookingRecord
	err := row.Scan(
		&b.ID,
		&b.CheckoutSessionID,
		&b.Adults,
		&b.Children,
		&b.CheckinDate,
		&b.CheckoutDate,
		&b.NoOfDays,
		&b.RoomRef,
		&b.UserRef,
		&b.Discount,
		&b.TotalPrice,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func bookingConfirmedPayload(b *domain.BookingRecord) map[string]any {
	return map[string]any{
		"booking_id":          b.ID,
		"checkout_session_id": b.CheckoutSessionID,
		"room_ref":            b.RoomRef,
		"user_ref":            b.UserRef,
		"adults":              b.Adults,
		"children":            b.Children,
		"checkin_date":        domain.FormatDate(b.CheckinDate),
		"checkout_date":       domain.FormatDate(b.CheckoutDate),
		"no_of_days":          b.NoOfDays,
		"discount":            b.Discount.String(),
		"total_price":         b.TotalPrice.String(),
		"confirmed_at":        b.CreatedAt,
	}
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, aggregateID, eventType string, payload map[string]any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, NOW())`,
		aggregateID, eventType, payloadJSON); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
