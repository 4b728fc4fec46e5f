package model

import "time"

// StatusAnalysisComplete is the terminal status of a successfully analyzed transaction.
const StatusAnalysisComplete = "ANALYSIS_COMPLETE"

// DefaultCountry is used when a transaction does not declare an origin country.
const DefaultCountry = "BRA"

// UnknownCountry marks a profile that has never seen a transaction with a country.
const UnknownCountry = "N/A"

// TransactionRequest is an incoming transaction to be analyzed. Transient,
// built per call and never persisted.
type TransactionRequest struct {
	UserID  string
	Value   float64
	Country string
}

// UserProfile holds the running behavioral statistics for one user.
// TransactionCount == 0 implies AverageAmount == 0.
type UserProfile struct {
	UserID           string
	TransactionCount int
	AverageAmount    float64
	LastKnownCountry string
}

// DefaultProfile synthesizes the zero profile for a user that has no history.
// It is never written to the backing store; reads stay side-effect free.
func DefaultProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:           userID,
		TransactionCount: 0,
		AverageAmount:    0.0,
		LastKnownCountry: UnknownCountry,
	}
}

// RiskAssessment is the immutable result of one scoring call.
type RiskAssessment struct {
	RiskScore         float64
	RecommendedAction Action
}

// ScoringRequest carries the enriched features sent to the scoring service.
type ScoringRequest struct {
	UserID           string
	Value            float64
	TransactionCount int
	AverageAmount    float64
	LastKnownCountry string
	Country          string
}

// AnalysisResult is the caller-visible outcome of the pipeline.
type AnalysisResult struct {
	Status string
	Risk   RiskAssessment
}

// TransactionEvent is published to the bus after a successful analysis and
// consumed independently by the profile updater and the audit writer.
// EventID makes redelivered events detectable.
type TransactionEvent struct {
	EventID   string
	UserID    string
	Amount    float64
	Country   string
	Status    string
	Risk      RiskAssessment
	Timestamp time.Time
}

// AuditRecord is one immutable row of the audit trail.
type AuditRecord struct {
	Status            string
	RiskScore         float64
	RecommendedAction string
	ReceivedAt        time.Time
}
