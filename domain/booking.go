package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventTypeCheckoutSessionCompleted = "checkout.session.completed"

type BookingRecord struct {
	ID                string
	CheckoutSessionID string
	Adults            int
	Children          int
	CheckinDate       time.Time
	CheckoutDate      time.Time
	NoOfDays          int
	RoomRef           string
	UserRef           string
	Discount          decimal.Decimal
	TotalPrice        decimal.Decimal
	Status            FulfillmentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewBookingRecord builds the record committed for a completed checkout session.
func NewBookingRecord(sessionID string, m *SessionMetadata) *BookingRecord {
	return &BookingRecord{
		CheckoutSessionID: sessionID,
		Adults:            m.Adults,
		Children:          m.Children,
		CheckinDate:       m.CheckinDate,
		CheckoutDate:      m.CheckoutDate,
		NoOfDays:          m.NoOfDays,
		RoomRef:           m.RoomRef,
		UserRef:           m.UserRef,
		Discount:          m.DiscountPercent,
		TotalPrice:        m.TotalPrice,
		Status:            FulfillmentStatusFulfilling,
	}
}

// CheckoutRequest is a BookingRequest plus the caller context resolved at the edge.
type CheckoutRequest struct {
	Booking        BookingRequest
	UserID         string
	Origin         string
	IdempotencyKey string
}

// SessionHandle is what the client needs to redirect to the hosted payment page.
type SessionHandle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutSessionParams is the provider-neutral description of a session to open.
type CheckoutSessionParams struct {
	ProductName    string
	ProductImages  []string
	AmountMinor    int64
	Currency       string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

// CheckoutSession is the ledger row written when a provider session is opened.
type CheckoutSession struct {
	ID             string
	UserID         string
	RoomRef        string
	IdempotencyKey *string
	URL            string
	TotalPrice     decimal.Decimal
	Status         FulfillmentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentEvent is a provider event that passed signature verification.
type PaymentEvent struct {
	ID        string
	Type      string
	SessionID string
	Metadata  map[string]string
}
