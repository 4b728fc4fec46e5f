package dto

import (
	"time"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
)

// RiskAnalysisDTO is the wire form of a risk assessment.
type RiskAnalysisDTO struct {
	RiskScore         float64 `json:"riskScore"`
	RecommendedAction string  `json:"recommendedAction"`
}

// TransactionEventDTO is the payload published on the transaction-events
// topic. The eventId field is the redelivery guard: the legacy wire event
// had no identity, so consumers could not detect duplicates.
type TransactionEventDTO struct {
	EventID      string          `json:"eventId"`
	UserID       string          `json:"userId"`
	Value        float64         `json:"value"`
	Country      string          `json:"country,omitempty"`
	Status       string          `json:"status"`
	RiskAnalysis RiskAnalysisDTO `json:"riskAnalysis"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ToModel converts a TransactionEventDTO to a domain model
func (dto *TransactionEventDTO) ToModel() *model.TransactionEvent {
	return &model.TransactionEvent{
		EventID: dto.EventID,
		UserID:  dto.UserID,
		Amount:  dto.Value,
		Country: dto.Country,
		Status:  dto.Status,
		Risk: model.RiskAssessment{
			RiskScore:         dto.RiskAnalysis.RiskScore,
			RecommendedAction: model.ParseAction(dto.RiskAnalysis.RecommendedAction),
		},
		Timestamp: dto.Timestamp,
	}
}

// FromModel creates a TransactionEventDTO from a domain model
func FromModel(event *model.TransactionEvent) *TransactionEventDTO {
	return &TransactionEventDTO{
		EventID: event.EventID,
		UserID:  event.UserID,
		Value:   event.Amount,
		Country: event.Country,
		Status:  event.Status,
		RiskAnalysis: RiskAnalysisDTO{
			RiskScore:         event.Risk.RiskScore,
			RecommendedAction: string(event.Risk.RecommendedAction),
		},
		Timestamp: event.Timestamp,
	}
}
