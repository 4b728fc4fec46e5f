package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/useCases"
	"github.com/Afonso017/fraud-detector/internal/metrics"
)

// AnalysisPipeline orchestrates one transaction analysis: profile lookup,
// feature enrichment, scoring, response assembly and the audit/consistency
// fan-out. Only the scoring call blocks, and it runs under a bounded
// semaphore so scoring latency cannot starve request intake.
type AnalysisPipeline struct {
	profiles  useCases.ProfileService
	scorer    useCases.RiskScorer
	publisher useCases.EventPublisher
	sem       chan struct{}
	log       *slog.Logger
}

func NewAnalysisPipeline(
	profiles useCases.ProfileService,
	scorer useCases.RiskScorer,
	publisher useCases.EventPublisher,
	maxInflightScores int,
	log *slog.Logger,
) *AnalysisPipeline {
	if maxInflightScores <= 0 {
		maxInflightScores = 64
	}
	return &AnalysisPipeline{
		profiles:  profiles,
		scorer:    scorer,
		publisher: publisher,
		sem:       make(chan struct{}, maxInflightScores),
		log:       log,
	}
}

var _ useCases.AnalysisService = (*AnalysisPipeline)(nil)

// Analyze runs steps 1-4 sequentially and fans out the completed event after
// a successful scoring call. The publish outcome never alters the response.
func (p *AnalysisPipeline) Analyze(ctx context.Context, req *model.TransactionRequest) (*model.AnalysisResult, error) {
	if req == nil || req.UserID == "" {
		return nil, ErrInvalidInput
	}
	if req.Value < 0 {
		return nil, fmt.Errorf("%w: negative value", ErrInvalidInput)
	}

	// Step 1: profile lookup. Missing profiles never fail the request; only
	// infrastructure failures propagate.
	profile, err := p.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	// Step 2: feature enrichment.
	country := req.Country
	if country == "" {
		country = model.DefaultCountry
	}
	scoringReq := &model.ScoringRequest{
		UserID:           req.UserID,
		Value:            req.Value,
		TransactionCount: profile.TransactionCount,
		AverageAmount:    profile.AverageAmount,
		LastKnownCountry: profile.LastKnownCountry,
		Country:          country,
	}

	// Step 3: scoring, single attempt, bounded concurrency.
	assessment, err := p.score(ctx, scoringReq)
	if err != nil {
		return nil, err
	}

	// Step 4: response assembly.
	result := &model.AnalysisResult{
		Status: model.StatusAnalysisComplete,
		Risk:   *assessment,
	}

	// Step 5: fire-and-forget fan-out. A drop is observable to operators but
	// invisible to the caller.
	event := &model.TransactionEvent{
		EventID:   uuid.NewString(),
		UserID:    req.UserID,
		Amount:    req.Value,
		Country:   req.Country,
		Status:    result.Status,
		Risk:      result.Risk,
		Timestamp: time.Now(),
	}
	if !p.publisher.Enqueue(event) {
		p.log.Warn("transaction event dropped, profile and audit trail will drift",
			"eventId", event.EventID, "userId", event.UserID)
	}

	return result, nil
}

func (p *AnalysisPipeline) score(ctx context.Context, req *model.ScoringRequest) (*model.RiskAssessment, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrScoringUnavailable, ctx.Err())
	}
	defer func() { <-p.sem }()

	start := time.Now()
	assessment, err := p.scorer.Score(ctx, req)
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ScoringFailuresTotal.Inc()
		return nil, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}
	return assessment, nil
}
