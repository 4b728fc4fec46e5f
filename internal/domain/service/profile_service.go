// Package service implements the domain services on top of the repository
// interfaces, keeping the core free of infrastructure concerns.
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
	"github.com/Afonso017/fraud-detector/internal/domain/useCases"
)

const profileLockShards = 64

// CacheAsideProfileService is the profile consistency engine: reads go
// cache-first with store fallback, writes go through the store and then
// refresh the cache. Mutations for one user are serialized by a sharded
// lock keyed by userId; different users proceed in parallel.
type CacheAsideProfileService struct {
	store repository.ProfileStore
	cache repository.ProfileCache
	locks [profileLockShards]sync.Mutex
	log   *slog.Logger
}

func NewCacheAsideProfileService(store repository.ProfileStore, cache repository.ProfileCache, log *slog.Logger) *CacheAsideProfileService {
	return &CacheAsideProfileService{
		store: store,
		cache: cache,
		log:   log,
	}
}

var _ useCases.ProfileService = (*CacheAsideProfileService)(nil)

// GetProfile implements the cache-aside read path. It never reports "not
// found": an unknown user gets the default zero profile, which is not
// written back to the store.
func (s *CacheAsideProfileService) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if cached := s.cache.GetProfile(ctx, userID); cached != nil {
		copied := *cached
		return &copied, nil
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err == repository.ErrProfileNotFound {
		return model.DefaultProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	s.cache.SaveProfile(ctx, profile)
	copied := *profile
	return &copied, nil
}

// ApplyTransaction updates the running statistics for the event's user.
// The incremental mean uses the pre-increment count as weight and divides
// by the post-increment count.
func (s *CacheAsideProfileService) ApplyTransaction(ctx context.Context, event *model.TransactionEvent) error {
	if event == nil {
		return nil
	}
	if event.Amount <= 0 {
		// A no-op transaction must not pollute the running average.
		s.log.Debug("ignoring event with non-positive amount",
			"userId", event.UserID, "amount", event.Amount)
		return nil
	}

	lock := &s.locks[shardFor(event.UserID)]
	lock.Lock()
	defer lock.Unlock()

	profile, err := s.GetProfile(ctx, event.UserID)
	if err != nil {
		return err
	}

	newCount := profile.TransactionCount + 1
	profile.AverageAmount = (profile.AverageAmount*float64(profile.TransactionCount) + event.Amount) / float64(newCount)
	profile.TransactionCount = newCount
	if event.Country != "" {
		profile.LastKnownCountry = event.Country
	}

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("save profile for %s: %w", event.UserID, err)
	}
	// Cache refresh after the store write so a reader hitting the cache
	// observes the post-update value.
	s.cache.SaveProfile(ctx, profile)

	return nil
}

func shardFor(userID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return h.Sum32() % profileLockShards
}
