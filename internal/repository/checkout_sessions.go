package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/lib/pq"
)

func (r *Repository) CreateCheckoutSession(ctx context.Context, s *domain.CheckoutSession) error {
	query := `INSERT INTO checkout_sessions (id, user_id, room_ref, idempotency_key, url, total_price, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.RoomRef,
		s.IdempotencyKey,
		s.URL,
		s.TotalPrice,
		s.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert checkout session: %w", err)
	}
	return nil
}

func (r *Repository) GetCheckoutSessionByIdempotencyKey(ctx context.Context, key string) (*domain.CheckoutSession, error) {
	query := `SELECT id, user_id, room_ref, idempotency_key, url, total_price, status, created_at, updated_at
	          FROM checkout_sessions WHERE idempotency_key = $1`

	var s domain.CheckoutSession
	var idem sql.NullString
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&s.ID,
		&s.UserID,
		&s.RoomRef,
		&idem,
		&s.URL,
		&s.TotalPrice,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query checkout session by idempotency key: %w", err)
	}

	if idem.Valid {
		s.IdempotencyKey = &idem.String
	}
	return &s, nil
}

func (r *Repository) GetCheckoutSessionStatus(ctx context.Context, id string) (domain.FulfillmentStatus, error) {
	var status domain.FulfillmentStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM checkout_sessions WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("checkout session %s: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return "", fmt.Errorf("query checkout session status: %w", err)
	}
	return status, nil
}

// advanceCheckoutSession moves the ledger row forward. Sessions opened before
// the ledger existed have no row, which is not an error.
func advanceCheckoutSession(ctx context.Context, tx *sql.Tx, id string, to domain.FulfillmentStatus) error {
	var from domain.FulfillmentStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM checkout_sessions WHERE id = $1 FOR UPDATE`, id).Scan(&from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock checkout session: %w", err)
	}

	if from == to || !domain.CanTransitionTo(from, to) {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE checkout_sessions SET status = $1, updated_at = NOW() WHERE id = $2`, to, id); err != nil {
		return fmt.Errorf("update checkout session status: %w", err)
	}
	return nil
}
