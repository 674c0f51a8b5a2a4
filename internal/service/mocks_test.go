package service

import (
	"context"
	"sync"

	d "github.com/MAB12-Star/hotel-management/domain"
	r "github.com/MAB12-Star/hotel-management/internal/repository"
	"github.com/google/uuid"
)

type MockCatalog struct {
	Room  *d.Room
	Err   error
	Calls int
}

func (m *MockCatalog) GetRoom(_ context.Context, _ string) (*d.Room, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Room, nil
}

type MockPayments struct {
	Handle *d.SessionHandle
	Err    error
	Params *d.CheckoutSessionParams // captures the params passed to CreateCheckoutSession
	Calls  int
}

func (m *MockPayments) CreateCheckoutSession(_ context.Context, params *d.CheckoutSessionParams) (*d.SessionHandle, error) {
	m.Calls++
	m.Params = params
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Handle, nil
}

type MockLedger struct {
	Existing  *d.CheckoutSession
	GetErr    error
	CreateErr error
	Created   []*d.CheckoutSession
	GetCalls  int
}

func (m *MockLedger) CreateCheckoutSession(_ context.Context, session *d.CheckoutSession) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, session)
	return nil
}

func (m *MockLedger) GetCheckoutSessionByIdempotencyKey(_ context.Context, _ string) (*d.CheckoutSession, error) {
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Existing == nil {
		return nil, r.ErrIdempotencyKeyNotFound
	}
	return m.Existing, nil
}

type MockVerifier struct {
	Event *d.PaymentEvent
	Err   error
}

func (m *MockVerifier) ConstructEvent(_ []byte, _ string) (*d.PaymentEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Event, nil
}

// MockBookingStore keeps bookings keyed by checkout session, like the unique index does.
type MockBookingStore struct {
	mu          sync.Mutex
	bySession   map[string]*d.BookingRecord
	CreateErr   error
	MarkErr     error
	CreateCalls int
	MarkCalls   int
}

func NewMockBookingStore() *MockBookingStore {
	return &MockBookingStore{bySession: make(map[string]*d.BookingRecord)}
}

func (m *MockBookingStore) CreateBooking(_ context.Context, record *d.BookingRecord) (*d.BookingRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, false, m.CreateErr
	}
	if existing, ok := m.bySession[record.CheckoutSessionID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	stored := *record
	stored.ID = uuid.NewString()
	stored.Status = d.FulfillmentStatusFulfilling
	m.bySession[record.CheckoutSessionID] = &stored
	cp := stored
	return &cp, true, nil
}

func (m *MockBookingStore) MarkFulfilled(_ context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCalls++
	if m.MarkErr != nil {
		return m.MarkErr
	}
	for _, b := range m.bySession {
		if b.ID == bookingID {
			b.Status = d.FulfillmentStatusFulfilled
			return nil
		}
	}
	return r.ErrBookingNotFound
}

func (m *MockBookingStore) Bookings() []*d.BookingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*d.BookingRecord, 0, len(m.bySession))
	for _, b := range m.bySession {
		cp := *b
		out = append(out, &cp)
	}
	return out
}

// MockRoomUpdater applies at most one update per booking, like the claims table.
type MockRoomUpdater struct {
	mu      sync.Mutex
	claims  map[string]bool
	Err     error
	Calls   int
	Applied map[string]int // room ref -> applied updates
}

func NewMockRoomUpdater() *MockRoomUpdater {
	return &MockRoomUpdater{claims: make(map[string]bool), Applied: make(map[string]int)}
}

func (m *MockRoomUpdater) UpdateRoomAvailability(_ context.Context, roomRef, bookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return false, m.Err
	}
	if m.claims[bookingID] {
		return false, nil
	}
	m.claims[bookingID] = true
	m.Applied[roomRef]++
	return true, nil
}

func (m *MockRoomUpdater) AppliedCount(roomRef string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Applied[roomRef]
}
