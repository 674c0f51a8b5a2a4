package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() BookingRequest {
	return BookingRequest{
		CheckinDate:  "2026-11-02T00:00:00.000Z",
		CheckoutDate: "2026-11-05",
		Adults:       2,
		Children:     0,
		NoOfDays:     3,
		RoomSlug:     "deluxe-suite",
	}
}

func TestBookingRequest_Validate_OK(t *testing.T) {
	req := validRequest()

	stay, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), stay.CheckinDate)
	assert.Equal(t, time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC), stay.CheckoutDate)
	assert.Equal(t, 3, stay.NoOfDays)
	assert.Equal(t, "deluxe-suite", stay.RoomSlug)
}

func TestBookingRequest_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookingRequest)
		field  string
	}{
		{"missing checkin", func(r *BookingRequest) { r.CheckinDate = "" }, "checkinDate"},
		{"missing checkout", func(r *BookingRequest) { r.CheckoutDate = "" }, "checkoutDate"},
		{"missing room", func(r *BookingRequest) { r.RoomSlug = "" }, "hotelRoomSlug"},
		{"no adults", func(r *BookingRequest) { r.Adults = 0 }, "adults"},
		{"zero nights", func(r *BookingRequest) { r.NoOfDays = 0 }, "noOfDays"},
		{"negative children", func(r *BookingRequest) { r.Children = -1 }, "children"},
		{"garbage date", func(r *BookingRequest) { r.CheckinDate = "soon" }, "checkinDate"},
		{"checkout before checkin", func(r *BookingRequest) { r.CheckoutDate = "2026-11-01" }, "checkoutDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			stay, err := req.Validate()
			assert.Nil(t, stay)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestBookingRequest_Validate_CollectsAllFields(t *testing.T) {
	req := BookingRequest{}

	_, err := req.Validate()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 5)
}
