package useCases

import (
	"context"
	"net/http"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
)

// ProfileService is the read and write API of the profile consistency engine.
type ProfileService interface {
	// GetProfile never fails with "not found"; unknown users get a default
	// zero profile without a backing-store write.
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)

	// ApplyTransaction folds one transaction-completed event into the user's
	// running statistics. Events with amount <= 0 are ignored.
	ApplyTransaction(ctx context.Context, event *model.TransactionEvent) error
}

// AnalysisService runs the orchestration pipeline for one transaction.
type AnalysisService interface {
	Analyze(ctx context.Context, req *model.TransactionRequest) (*model.AnalysisResult, error)
}

// RiskScorer is the opaque scoring collaborator.
type RiskScorer interface {
	Score(ctx context.Context, req *model.ScoringRequest) (*model.RiskAssessment, error)
}

// EventPublisher hands completed-transaction events to the bus without
// blocking the caller. Enqueue reports false when the event was dropped.
type EventPublisher interface {
	Enqueue(event *model.TransactionEvent) bool
}

// ProfileBroadcaster pushes profile updates to connected clients.
type ProfileBroadcaster interface {
	BroadcastProfile(profile *model.UserProfile)
	Handler() func(http.ResponseWriter, *http.Request)
}
