package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RoomAvailability is the booking-side view of a room.
type RoomAvailability struct {
	RoomRef       string
	IsBooked      bool
	BookedCount   int
	LastBookingID string
}

// UpdateRoomAvailability marks roomRef booked on behalf of bookingID. The
// change is applied at most once per booking; applied reports whether this
// call was the one that applied it.
func (r *Repository) UpdateRoomAvailability(ctx context.Context, roomRef, bookingID string) (bool, error) {
	var applied bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO room_booking_claims (booking_id, room_ref, claimed_at) VALUES ($1, $2, NOW())
			 ON CONFLICT (booking_id) DO NOTHING`, bookingID, roomRef)
		if err != nil {
			return fmt.Errorf("claim room update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim rows affected: %w", err)
		}
		if n == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO room_availability (room_ref, is_booked, booked_count, last_booking_id, updated_at)
			 VALUES ($1, TRUE, 1, $2, NOW())
			 ON CONFLICT (room_ref) DO UPDATE
			 SET is_booked = TRUE,
			     booked_count = room_availability.booked_count + 1,
			     last_booking_id = EXCLUDED.last_booking_id,
			     updated_at = NOW()`, roomRef, bookingID); err != nil {
			return fmt.Errorf("update room availability: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *Repository) GetRoomAvailability(ctx context.Context, roomRef string) (*RoomAvailability, error) {
	var a RoomAvailability
	var last sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT room_ref, is_booked, booked_count, last_booking_id FROM room_availability WHERE room_ref = $1`, roomRef).
		Scan(&a.RoomRef, &a.IsBooked, &a.BookedCount, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return &RoomAvailability{RoomRef: roomRef}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query room availability: %w", err)
	}
	a.LastBookingID = last.String
	return &a, nil
}
