package utils

import (
	"math/rand"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
)

// TransactionGenerator provides methods to generate test transaction data
type TransactionGenerator struct{}

// NewTransactionGenerator creates a new transaction generator
func NewTransactionGenerator() *TransactionGenerator {
	return &TransactionGenerator{}
}

// GenerateRequests creates a specified number of test transaction requests
func (g *TransactionGenerator) GenerateRequests(count int) []*model.TransactionRequest {
	countries := []string{"BRA", "USA", "PRT", "ARG", "DEU", "JPN", "GBR", "FRA"}

	requests := make([]*model.TransactionRequest, count)
	for i := 0; i < count; i++ {
		req := &model.TransactionRequest{
			UserID: userLabel(i % 50),
			Value:  10 + rand.Float64()*990,
		}
		// Roughly a third of transactions carry no origin country
		if i%3 != 0 {
			req.Country = countries[rand.Intn(len(countries))]
		}
		requests[i] = req
	}

	return requests
}

func userLabel(n int) string {
	return "user-" + string(rune('a'+n%26)) + string(rune('0'+n%10))
}
