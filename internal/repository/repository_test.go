package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestBooking(sessionID string) *domain.BookingRecord {
	return &domain.BookingRecord{
		CheckoutSessionID: sessionID,
		Adults:            2,
		Children:          1,
		CheckinDate:       time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		CheckoutDate:      time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC),
		NoOfDays:          3,
		RoomRef:           "room-1",
		UserRef:           "user-1",
		Discount:          decimal.NewFromInt(10),
		TotalPrice:        decimal.NewFromInt(270),
		Status:            domain.FulfillmentStatusFulfilling,
	}
}

func newTestSession(id string, key *string) *domain.CheckoutSession {
	return &domain.CheckoutSession{
		ID:             id,
		UserID:         "user-1",
		RoomRef:        "room-1",
		IdempotencyKey: key,
		URL:            "https://checkout.stripe.com/c/pay/" + id,
		TotalPrice:     decimal.NewFromInt(270),
		Status:         domain.FulfillmentStatusCreated,
	}
}

func TestCheckoutSession_IdempotencyKey(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	key := "idem-" + uuid.NewString()
	require.NoError(t, repo.CreateCheckoutSession(ctx, newTestSession("cs_1", &key)))

	got, err := repo.GetCheckoutSessionByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", got.ID)
	assert.Equal(t, domain.FulfillmentStatusCreated, got.Status)
	assert.True(t, decimal.NewFromInt(270).Equal(got.TotalPrice))
	require.NotNil(t, got.IdempotencyKey)
	assert.Equal(t, key, *got.IdempotencyKey)

	err = repo.CreateCheckoutSession(ctx, newTestSession("cs_2", &key))
	assert.ErrorIs(t, err, ErrDuplicateIdempotencyKey)

	_, err = repo.GetCheckoutSessionByIdempotencyKey(ctx, "unknown")
	assert.ErrorIs(t, err, ErrIdempotencyKeyNotFound)
}

func TestCheckoutSession_WithoutIdempotencyKey(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateCheckoutSession(ctx, newTestSession("cs_a", nil)))
	require.NoError(t, repo.CreateCheckoutSession(ctx, newTestSession("cs_b", nil)))
}

func TestCreateBooking_DedupBySession(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateCheckoutSession(ctx, newTestSession("cs_dedup", nil)))

	first, created, err := repo.CreateBooking(ctx, newTestBooking("cs_dedup"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, domain.FulfillmentStatusFulfilling, first.Status)
	assert.True(t, first.CheckinDate.Equal(time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)))

	second, created, err := repo.CreateBooking(ctx, newTestBooking("cs_dedup"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].AggregateId)
	assert.Equal(t, EventTypeBookingConfirmed, events[0].EventType)
	assert.Contains(t, string(events[0].Payload), "cs_dedup")

	status, err := repo.GetCheckoutSessionStatus(ctx, "cs_dedup")
	require.NoError(t, err)
	assert.Equal(t, domain.FulfillmentStatusFulfilling, status)
}

func TestCreateBooking_ConcurrentDeliveries(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[string]struct{})
	createdCount := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, created, err := repo.CreateBooking(ctx, newTestBooking("cs_race"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[b.ID] = struct{}{}
			if created {
				createdCount++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, createdCount)
}

func TestUpdateRoomAvailability_OncePerBooking(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	b, _, err := repo.CreateBooking(ctx, newTestBooking("cs_avail"))
	require.NoError(t, err)

	applied, err := repo.UpdateRoomAvailability(ctx, b.RoomRef, b.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.UpdateRoomAvailability(ctx, b.RoomRef, b.ID)
	require.NoError(t, err)
	assert.False(t, applied)

	avail, err := repo.GetRoomAvailability(ctx, b.RoomRef)
	require.NoError(t, err)
	assert.True(t, avail.IsBooked)
	assert.Equal(t, 1, avail.BookedCount)
	assert.Equal(t, b.ID, avail.LastBookingID)
}

func TestGetRoomAvailability_Untouched(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	avail, err := repo.GetRoomAvailability(context.Background(), "room-never-booked")
	require.NoError(t, err)
	assert.False(t, avail.IsBooked)
	assert.Zero(t, avail.BookedCount)
}

func TestMarkFulfilled(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateCheckoutSession(ctx, newTestSession("cs_done", nil)))
	b, _, err := repo.CreateBooking(ctx, newTestBooking("cs_done"))
	require.NoError(t, err)

	require.NoError(t, repo.MarkFulfilled(ctx, b.ID))
	require.NoError(t, repo.MarkFulfilled(ctx, b.ID))

	got, err := repo.GetBookingBySessionID(ctx, "cs_done")
	require.NoError(t, err)
	assert.Equal(t, domain.FulfillmentStatusFulfilled, got.Status)

	status, err := repo.GetCheckoutSessionStatus(ctx, "cs_done")
	require.NoError(t, err)
	assert.Equal(t, domain.FulfillmentStatusFulfilled, status)

	assert.ErrorIs(t, repo.MarkFulfilled(ctx, uuid.NewString()), ErrBookingNotFound)
}

func TestGetStuckBookings(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	stuck, _, err := repo.CreateBooking(ctx, newTestBooking("cs_stuck"))
	require.NoError(t, err)
	done, _, err := repo.CreateBooking(ctx, newTestBooking("cs_fine"))
	require.NoError(t, err)
	require.NoError(t, repo.MarkFulfilled(ctx, done.ID))

	_, err = repo.db.ExecContext(ctx, `UPDATE bookings SET updated_at = NOW() - INTERVAL '1 hour'`)
	require.NoError(t, err)

	bookings, err := repo.GetStuckBookings(ctx, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, stuck.ID, bookings[0].ID)

	bookings, err = repo.GetStuckBookings(ctx, 2*time.Hour, 10)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestGetBookingBySessionID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetBookingBySessionID(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestOutbox_MarkProcessed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, _, err := repo.CreateBooking(ctx, newTestBooking("cs_outbox_1"))
	require.NoError(t, err)
	_, _, err = repo.CreateBooking(ctx, newTestBooking("cs_outbox_2"))
	require.NoError(t, err)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, string(events[0].Payload), "cs_outbox_2")
}
