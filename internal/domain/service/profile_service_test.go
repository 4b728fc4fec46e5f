package service_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
	"github.com/Afonso017/fraud-detector/internal/domain/service"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/cache"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService() (*service.CacheAsideProfileService, *store.MemoryStore) {
	st := store.NewMemoryStore()
	c := cache.NewProfileCache(time.Minute)
	return service.NewCacheAsideProfileService(st, c, testLogger()), st
}

func event(userID string, amount float64, country string) *model.TransactionEvent {
	return &model.TransactionEvent{
		EventID:   fmt.Sprintf("ev-%s-%f", userID, amount),
		UserID:    userID,
		Amount:    amount,
		Country:   country,
		Status:    model.StatusAnalysisComplete,
		Timestamp: time.Now(),
	}
}

func TestGetProfileUnknownUserReturnsDefault(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	profile, err := svc.GetProfile(ctx, "nobody")
	require.NoError(t, err)

	assert.Equal(t, "nobody", profile.UserID)
	assert.Equal(t, 0, profile.TransactionCount)
	assert.Equal(t, 0.0, profile.AverageAmount)
	assert.Equal(t, model.UnknownCountry, profile.LastKnownCountry)

	// Reads are side-effect free: no record was materialized
	assert.Equal(t, 0, st.Len())
}

func TestApplyFirstTransaction(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.ApplyTransaction(ctx, event("u1", 100.0, "BRA")))

	profile, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TransactionCount)
	assert.Equal(t, 100.0, profile.AverageAmount)
	assert.Equal(t, "BRA", profile.LastKnownCountry)
}

func TestRunningAverageOverSequence(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	amounts := []float64{100, 200, 50, 150, 300}
	var sum float64
	for _, a := range amounts {
		require.NoError(t, svc.ApplyTransaction(ctx, event("u1", a, "")))
		sum += a
	}

	profile, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, len(amounts), profile.TransactionCount)
	assert.InDelta(t, sum/float64(len(amounts)), profile.AverageAmount, 1e-9)
}

func TestNonPositiveAmountIsIgnored(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.ApplyTransaction(ctx, event("u1", 100.0, "BRA")))
	require.NoError(t, svc.ApplyTransaction(ctx, event("u1", 0, "USA")))
	require.NoError(t, svc.ApplyTransaction(ctx, event("u1", -50, "USA")))

	profile, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TransactionCount)
	assert.Equal(t, 100.0, profile.AverageAmount)
	assert.Equal(t, "BRA", profile.LastKnownCountry)
	assert.Equal(t, 1, st.Len())
}

func TestCountryUnchangedWhenEventCarriesNone(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.ApplyTransaction(ctx, event("u1", 100.0, "PRT")))
	require.NoError(t, svc.ApplyTransaction(ctx, event("u1", 200.0, "")))

	profile, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "PRT", profile.LastKnownCountry)
}

func TestConcurrentUpdatesSameUserLoseNothing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := event("u1", 10, "")
			ev.EventID = fmt.Sprintf("ev-%d", i)
			_ = svc.ApplyTransaction(ctx, ev)
		}(i)
	}
	wg.Wait()

	profile, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, n, profile.TransactionCount)
	assert.InDelta(t, 10.0, profile.AverageAmount, 1e-9)
}

func TestConcurrentUpdatesAcrossUsers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	const users = 20
	const perUser = 25
	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", u)
			for i := 0; i < perUser; i++ {
				ev := event(userID, float64(100+u), "")
				ev.EventID = fmt.Sprintf("ev-%d-%d", u, i)
				_ = svc.ApplyTransaction(ctx, ev)
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		profile, err := svc.GetProfile(ctx, fmt.Sprintf("user-%d", u))
		require.NoError(t, err)
		assert.Equal(t, perUser, profile.TransactionCount)
		assert.InDelta(t, float64(100+u), profile.AverageAmount, 1e-9)
	}
}

func TestOrderCommutativityOfMean(t *testing.T) {
	ctx := context.Background()

	svcA, _ := newTestService()
	require.NoError(t, svcA.ApplyTransaction(ctx, event("u1", 100, "")))
	require.NoError(t, svcA.ApplyTransaction(ctx, event("u1", 200, "")))

	svcB, _ := newTestService()
	require.NoError(t, svcB.ApplyTransaction(ctx, event("u1", 200, "")))
	require.NoError(t, svcB.ApplyTransaction(ctx, event("u1", 100, "")))

	pa, err := svcA.GetProfile(ctx, "u1")
	require.NoError(t, err)
	pb, err := svcB.GetProfile(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 2, pa.TransactionCount)
	assert.InDelta(t, 150.0, pa.AverageAmount, 1e-9)
	assert.InDelta(t, pa.AverageAmount, pb.AverageAmount, 1e-9)
}

// failingStore simulates an unreachable backing store.
type failingStore struct{}

func (f *failingStore) GetProfile(context.Context, string) (*model.UserProfile, error) {
	return nil, errors.New("connection refused")
}

func (f *failingStore) SaveProfile(context.Context, *model.UserProfile) error {
	return errors.New("connection refused")
}

var _ repository.ProfileStore = (*failingStore)(nil)

func TestStoreFailureSurfacesAsDependencyUnavailable(t *testing.T) {
	svc := service.NewCacheAsideProfileService(&failingStore{}, cache.NewProfileCache(time.Minute), testLogger())

	_, err := svc.GetProfile(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrDependencyUnavailable)
}

func TestCacheServesAfterStoreFailure(t *testing.T) {
	st := store.NewMemoryStore()
	c := cache.NewProfileCache(time.Minute)
	svc := service.NewCacheAsideProfileService(st, c, testLogger())
	ctx := context.Background()

	require.NoError(t, svc.ApplyTransaction(ctx, event("u1", 100, "BRA")))

	// The write path refreshed the cache, so a read does not need the store
	degraded := service.NewCacheAsideProfileService(&failingStore{}, c, testLogger())
	profile, err := degraded.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TransactionCount)
}
