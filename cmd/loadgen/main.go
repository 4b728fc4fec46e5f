// Command loadgen drives a running fraud detector with generated transaction
// traffic. Useful for demos and for watching the profile statistics move
// under load.
//
// Usage:
//
//	go run ./cmd/loadgen [count]
//
// The target defaults to http://localhost:8080 and can be overridden with
// the TARGET_URL environment variable.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Afonso017/fraud-detector/internal/app/dto"
	"github.com/Afonso017/fraud-detector/pkg/utils"
)

func main() {
	count := 100
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			log.Fatalf("invalid request count %q", os.Args[1])
		}
		count = n
	}

	baseURL := os.Getenv("TARGET_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	requests := utils.NewTransactionGenerator().GenerateRequests(count)
	client := &http.Client{Timeout: 10 * time.Second}

	ok, failed := 0, 0
	start := time.Now()
	for _, req := range requests {
		body, err := json.Marshal(dto.AnalysisRequest{
			UserID:  req.UserID,
			Value:   &req.Value,
			Country: req.Country,
		})
		if err != nil {
			log.Fatalf("failed to marshal request: %v", err)
		}

		resp, err := client.Post(baseURL+"/analyze", "application/json", bytes.NewReader(body))
		if err != nil {
			failed++
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			ok++
		} else {
			failed++
		}
	}

	fmt.Printf("sent %d requests in %s: %d ok, %d failed\n",
		count, time.Since(start).Round(time.Millisecond), ok, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
