package dto

import "github.com/Afonso017/fraud-detector/internal/domain/model"

// AnalysisRequest is the body of POST /analyze. Value is a pointer so an
// absent amount is distinguishable from an explicit zero.
type AnalysisRequest struct {
	UserID  string   `json:"userId"`
	Value   *float64 `json:"value"`
	Country string   `json:"country,omitempty"`
}

// ToModel converts the request body to a domain transaction request.
func (r *AnalysisRequest) ToModel() *model.TransactionRequest {
	var value float64
	if r.Value != nil {
		value = *r.Value
	}
	return &model.TransactionRequest{
		UserID:  r.UserID,
		Value:   value,
		Country: r.Country,
	}
}

// AnalysisResponse is the body returned to the caller on success.
type AnalysisResponse struct {
	Status       string          `json:"status"`
	RiskAnalysis RiskAnalysisDTO `json:"riskAnalysis"`
}

// FromResult creates the response body from a pipeline result.
func FromResult(result *model.AnalysisResult) *AnalysisResponse {
	return &AnalysisResponse{
		Status: result.Status,
		RiskAnalysis: RiskAnalysisDTO{
			RiskScore:         result.Risk.RiskScore,
			RecommendedAction: string(result.Risk.RecommendedAction),
		},
	}
}

// UserProfileDTO is the wire form of a user profile, served by
// GET /profiles/:userId and pushed over the websocket feed.
type UserProfileDTO struct {
	UserID           string  `json:"userId"`
	TransactionCount int     `json:"transactionCount"`
	AverageAmount    float64 `json:"averageAmount"`
	LastKnownCountry string  `json:"lastKnownCountry"`
}

// FromProfile creates a UserProfileDTO from a domain profile.
func FromProfile(profile *model.UserProfile) *UserProfileDTO {
	return &UserProfileDTO{
		UserID:           profile.UserID,
		TransactionCount: profile.TransactionCount,
		AverageAmount:    profile.AverageAmount,
		LastKnownCountry: profile.LastKnownCountry,
	}
}
