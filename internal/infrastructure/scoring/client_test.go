package scoring_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/scoring"
)

func TestScoreSendsEnrichedFeatures(t *testing.T) {
	var received map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]any{
			"riskScore":         0.73,
			"recommendedAction": "REVIEW",
		})
	}))
	defer ts.Close()

	client := scoring.NewClient(ts.URL, time.Second)
	assessment, err := client.Score(context.Background(), &model.ScoringRequest{
		UserID:           "u1",
		Value:            150,
		TransactionCount: 3,
		AverageAmount:    120.5,
		LastKnownCountry: "BRA",
		Country:          "USA",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.73, assessment.RiskScore)
	assert.Equal(t, model.ActionReview, assessment.RecommendedAction)

	assert.Equal(t, "u1", received["userId"])
	assert.Equal(t, 150.0, received["value"])
	assert.Equal(t, 3.0, received["transactionCount"])
	assert.Equal(t, 120.5, received["averageAmount"])
	assert.Equal(t, "BRA", received["lastKnownCountry"])
	assert.Equal(t, "USA", received["country"])
}

func TestScoreUnknownActionFallsBackToReview(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"riskScore":         0.5,
			"recommendedAction": "SHRUG",
		})
	}))
	defer ts.Close()

	client := scoring.NewClient(ts.URL, time.Second)
	assessment, err := client.Score(context.Background(), &model.ScoringRequest{UserID: "u1", Value: 10})
	require.NoError(t, err)

	assert.Equal(t, model.ActionReview, assessment.RecommendedAction)
}

func TestScoreNon200IsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := scoring.NewClient(ts.URL, time.Second)
	_, err := client.Score(context.Background(), &model.ScoringRequest{UserID: "u1", Value: 10})
	assert.Error(t, err)
}

func TestScoreTimesOut(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	client := scoring.NewClient(ts.URL, 20*time.Millisecond)
	_, err := client.Score(context.Background(), &model.ScoringRequest{UserID: "u1", Value: 10})
	assert.Error(t, err)
}
