// Package scoring provides the HTTP client for the external scoring service.
// The service is an opaque collaborator: enriched features in, a risk score
// and a recommended action out.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/useCases"
)

type scoringRequestBody struct {
	UserID           string  `json:"userId"`
	Value            float64 `json:"value"`
	TransactionCount int     `json:"transactionCount"`
	AverageAmount    float64 `json:"averageAmount"`
	LastKnownCountry string  `json:"lastKnownCountry"`
	Country          string  `json:"country"`
}

type scoringResponseBody struct {
	RiskScore         float64 `json:"riskScore"`
	RecommendedAction string  `json:"recommendedAction"`
}

// Client implements useCases.RiskScorer over HTTP. One attempt per request;
// retry policy belongs to the transport layer, not here.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

var _ useCases.RiskScorer = (*Client)(nil)

// Score sends the enriched features to POST {baseURL}/predict.
func (c *Client) Score(ctx context.Context, req *model.ScoringRequest) (*model.RiskAssessment, error) {
	body, err := json.Marshal(scoringRequestBody{
		UserID:           req.UserID,
		Value:            req.Value,
		TransactionCount: req.TransactionCount,
		AverageAmount:    req.AverageAmount,
		LastKnownCountry: req.LastKnownCountry,
		Country:          req.Country,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("scoring call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var result scoringResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}

	return &model.RiskAssessment{
		RiskScore:         result.RiskScore,
		RecommendedAction: model.ParseAction(result.RecommendedAction).Effective(),
	}, nil
}
