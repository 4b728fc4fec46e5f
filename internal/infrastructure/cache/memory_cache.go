// Package cache provides the in-process accelerator in front of the profile
// store. Entries carry a TTL so a stale copy is bounded in time.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
)

// ProfileCache implements repository.ProfileCache using patrickmn/go-cache.
type ProfileCache struct {
	entries *gocache.Cache
}

// NewProfileCache creates a cache whose entries expire after ttl.
func NewProfileCache(ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{
		entries: gocache.New(ttl, 2*ttl),
	}
}

var _ repository.ProfileCache = (*ProfileCache)(nil)

// GetProfile returns the cached profile or nil on miss.
func (c *ProfileCache) GetProfile(_ context.Context, userID string) *model.UserProfile {
	v, found := c.entries.Get(userID)
	if !found {
		return nil
	}
	profile, ok := v.(*model.UserProfile)
	if !ok {
		return nil
	}
	// Copy so callers cannot mutate the cached value in place.
	copied := *profile
	return &copied
}

// SaveProfile refreshes the cached copy, resetting its TTL.
func (c *ProfileCache) SaveProfile(_ context.Context, profile *model.UserProfile) {
	if profile == nil {
		return
	}
	copied := *profile
	c.entries.Set(profile.UserID, &copied, gocache.DefaultExpiration)
}
