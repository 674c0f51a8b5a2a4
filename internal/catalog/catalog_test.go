package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockRoomRepository struct {
	Room  *domain.Room
	Err   error
	Delay time.Duration
	Calls atomic.Int32
}

func (m *MockRoomRepository) GetRoomBySlug(_ context.Context, _ string) (*domain.Room, error) {
	m.Calls.Add(1)
	time.Sleep(m.Delay)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Room, nil
}

type MockRoomCache struct {
	mu     sync.Mutex
	rooms  map[string]*domain.Room
	GetErr error
	SetErr error
}

func newMockRoomCache() *MockRoomCache {
	return &MockRoomCache{rooms: make(map[string]*domain.Room)}
}

func (m *MockRoomCache) Get(_ context.Context, slug string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	room, ok := m.rooms[slug]
	if !ok {
		return nil, ErrCacheMiss
	}
	return room, nil
}

func (m *MockRoomCache) Set(_ context.Context, room *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.rooms[room.Slug] = room
	return nil
}

func (m *MockRoomCache) Delete(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, slug)
	return nil
}

func TestGetRoom_SecondLookupServedFromCache(t *testing.T) {
	repo := &MockRoomRepository{Room: testRoom()}
	cache := newMockRoomCache()
	c := NewCatalog(repo, cache, logger.NewNop())
	ctx := context.Background()

	first, err := c.GetRoom(ctx, "deluxe")
	require.NoError(t, err)
	second, err := c.GetRoom(ctx, "deluxe")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), repo.Calls.Load())
}

func TestGetRoom_NotFound(t *testing.T) {
	repo := &MockRoomRepository{Err: ErrRoomNotFound}
	c := NewCatalog(repo, newMockRoomCache(), logger.NewNop())

	_, err := c.GetRoom(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetRoom_EmptySlug(t *testing.T) {
	repo := &MockRoomRepository{Room: testRoom()}
	c := NewCatalog(repo, newMockRoomCache(), logger.NewNop())

	_, err := c.GetRoom(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int32(0), repo.Calls.Load())
}

func TestGetRoom_CacheFailureFallsBackToRepository(t *testing.T) {
	repo := &MockRoomRepository{Room: testRoom()}
	cache := newMockRoomCache()
	cache.GetErr = errors.New("redis unavailable")
	cache.SetErr = errors.New("redis unavailable")
	c := NewCatalog(repo, cache, logger.NewNop())

	room, err := c.GetRoom(context.Background(), "deluxe")
	require.NoError(t, err)
	assert.Equal(t, "room-1", room.ID)
}

func TestGetRoom_ConcurrentMissesCollapse(t *testing.T) {
	repo := &MockRoomRepository{Room: testRoom(), Delay: 50 * time.Millisecond}
	c := NewCatalog(repo, newMockRoomCache(), logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetRoom(context.Background(), "deluxe")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, repo.Calls.Load(), int32(2))
}
