package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/MAB12-Star/hotel-management/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Catalog resolves room slugs, reading through the cache into the repository.
type Catalog struct {
	repo  RoomRepository
	cache RoomCache
	sfg   singleflight.Group // collapses concurrent misses for the same slug
	log   *logger.Logger
}

func NewCatalog(repo RoomRepository, cache RoomCache, log *logger.Logger) *Catalog {
	return &Catalog{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func (c *Catalog) GetRoom(ctx context.Context, slug string) (*domain.Room, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: empty room slug", ErrRoomNotFound)
	}

	v, err, _ := c.sfg.Do(slug, func() (interface{}, error) {
		room, err := c.cache.Get(ctx, slug)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.WithContext(ctx).WithError(err).Warn("room cache get failed")
		}

		room, err = c.repo.GetRoomBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}

		if errSet := c.cache.Set(ctx, room); errSet != nil {
			c.log.WithContext(ctx).WithError(errSet).Warn("room cache set failed")
		}
		return room, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Room), nil
}
