package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/service"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/cache"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/store"
)

// fakeScorer returns a canned assessment and records the scoring request.
type fakeScorer struct {
	mu       sync.Mutex
	lastReq  *model.ScoringRequest
	result   *model.RiskAssessment
	err      error
	inflight int
	maxSeen  int
}

func (f *fakeScorer) Score(_ context.Context, req *model.ScoringRequest) (*model.RiskAssessment, error) {
	f.mu.Lock()
	f.lastReq = req
	f.inflight++
	if f.inflight > f.maxSeen {
		f.maxSeen = f.inflight
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakePublisher captures enqueued events; can simulate a full queue.
type fakePublisher struct {
	mu     sync.Mutex
	events []*model.TransactionEvent
	full   bool
}

func (f *fakePublisher) Enqueue(event *model.TransactionEvent) bool {
	if f.full {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return true
}

func (f *fakePublisher) captured() []*model.TransactionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.TransactionEvent(nil), f.events...)
}

func newPipeline(scorer *fakeScorer, publisher *fakePublisher) (*service.AnalysisPipeline, *service.CacheAsideProfileService) {
	profiles := service.NewCacheAsideProfileService(store.NewMemoryStore(), cache.NewProfileCache(time.Minute), testLogger())
	return service.NewAnalysisPipeline(profiles, scorer, publisher, 8, testLogger()), profiles
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	pipeline, _ := newPipeline(&fakeScorer{}, &fakePublisher{})
	ctx := context.Background()

	_, err := pipeline.Analyze(ctx, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = pipeline.Analyze(ctx, &model.TransactionRequest{UserID: "", Value: 10})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = pipeline.Analyze(ctx, &model.TransactionRequest{UserID: "u1", Value: -5})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAnalyzeHappyPath(t *testing.T) {
	scorer := &fakeScorer{result: &model.RiskAssessment{RiskScore: 0.12, RecommendedAction: model.ActionApprove}}
	publisher := &fakePublisher{}
	pipeline, _ := newPipeline(scorer, publisher)

	result, err := pipeline.Analyze(context.Background(), &model.TransactionRequest{
		UserID:  "u1",
		Value:   100,
		Country: "BRA",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusAnalysisComplete, result.Status)
	assert.Equal(t, 0.12, result.Risk.RiskScore)
	assert.Equal(t, model.ActionApprove, result.Risk.RecommendedAction)

	events := publisher.captured()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].EventID)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, 100.0, events[0].Amount)
	assert.Equal(t, model.StatusAnalysisComplete, events[0].Status)
}

func TestAnalyzeEnrichesWithProfileAndDefaultCountry(t *testing.T) {
	scorer := &fakeScorer{result: &model.RiskAssessment{RiskScore: 0.5, RecommendedAction: model.ActionReview}}
	publisher := &fakePublisher{}
	pipeline, profiles := newPipeline(scorer, publisher)
	ctx := context.Background()

	// Seed some history for u1
	require.NoError(t, profiles.ApplyTransaction(ctx, event("u1", 100, "PRT")))
	require.NoError(t, profiles.ApplyTransaction(ctx, event("u1", 200, "PRT")))

	_, err := pipeline.Analyze(ctx, &model.TransactionRequest{UserID: "u1", Value: 150})
	require.NoError(t, err)

	req := scorer.lastReq
	require.NotNil(t, req)
	assert.Equal(t, 2, req.TransactionCount)
	assert.InDelta(t, 150.0, req.AverageAmount, 1e-9)
	assert.Equal(t, "PRT", req.LastKnownCountry)
	// Absent origin country falls back to the fixed sentinel
	assert.Equal(t, model.DefaultCountry, req.Country)
}

func TestAnalyzeScoringFailure(t *testing.T) {
	scorer := &fakeScorer{err: errors.New("connection reset")}
	publisher := &fakePublisher{}
	pipeline, _ := newPipeline(scorer, publisher)

	_, err := pipeline.Analyze(context.Background(), &model.TransactionRequest{UserID: "u1", Value: 100})
	assert.ErrorIs(t, err, service.ErrScoringUnavailable)

	// No assessment, no event
	assert.Empty(t, publisher.captured())
}

func TestAnalyzePublishDropDoesNotAlterResponse(t *testing.T) {
	scorer := &fakeScorer{result: &model.RiskAssessment{RiskScore: 0.9, RecommendedAction: model.ActionDecline}}
	publisher := &fakePublisher{full: true}
	pipeline, _ := newPipeline(scorer, publisher)

	result, err := pipeline.Analyze(context.Background(), &model.TransactionRequest{UserID: "u1", Value: 100})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAnalysisComplete, result.Status)
	assert.Equal(t, model.ActionDecline, result.Risk.RecommendedAction)
}

func TestAnalyzeConcurrentScoringIsBounded(t *testing.T) {
	scorer := &fakeScorer{result: &model.RiskAssessment{RiskScore: 0.1, RecommendedAction: model.ActionApprove}}
	publisher := &fakePublisher{}
	profiles := service.NewCacheAsideProfileService(store.NewMemoryStore(), cache.NewProfileCache(time.Minute), testLogger())
	pipeline := service.NewAnalysisPipeline(profiles, scorer, publisher, 4, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pipeline.Analyze(context.Background(), &model.TransactionRequest{UserID: "u1", Value: 50})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, scorer.maxSeen, 4)
	assert.Len(t, publisher.captured(), 32)
}
