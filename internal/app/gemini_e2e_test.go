//go:build gemini_e2e

package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"

	"github.com/admitpath/college-recommender/internal/app"
	classifygemini "github.com/admitpath/college-recommender/internal/classify/gemini"
	"github.com/admitpath/college-recommender/internal/retrieve"
	retrievegemini "github.com/admitpath/college-recommender/internal/retrieve/gemini"
	webgemini "github.com/admitpath/college-recommender/internal/websearch/gemini"
)

// Run with: go test -tags gemini_e2e ./internal/app/ -run RealGemini -v
func TestRunAsk_RealGemini_EndToEnd(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Fatalf("GEMINI_API_KEY is required for gemini_e2e tests")
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	baseURL := os.Getenv("GEMINI_BASE_URL")

	ctx := context.Background()

	classifier, err := classifygemini.New(ctx, classifygemini.Config{APIKey: apiKey, Model: model, BaseURL: baseURL})
	if err != nil {
		t.Fatalf("create classifier: %v", err)
	}
	knowledge, err := retrievegemini.New(ctx, retrievegemini.Config{APIKey: apiKey, Model: model, BaseURL: baseURL})
	if err != nil {
		t.Fatalf("create knowledge service: %v", err)
	}
	web, err := webgemini.New(ctx, webgemini.Config{APIKey: apiKey, Model: model, BaseURL: baseURL})
	if err != nil {
		t.Fatalf("create web recommender: %v", err)
	}

	// No catalog configured: the knowledge base is the only primary source.
	retriever := retrieve.NewService(nil, knowledge, knowledge, retrieve.Options{MaxRetries: 2})

	runner, err := app.NewRunner(classifier, retriever, web, log.New(os.Stderr, "", log.LstdFlags))
	if err != nil {
		t.Fatalf("create runner: %v", err)
	}

	t.Run("college query produces final output", func(t *testing.T) {
		var out bytes.Buffer
		if err := runner.RunAsk(ctx, "What MBA programs does Stanford offer for finance specialization?", &out); err != nil {
			t.Fatalf("RunAsk: %v", err)
		}
		var res struct {
			EarlyResponse string          `json:"early_response"`
			FinalOutput   json.RawMessage `json:"final_output"`
		}
		if err := json.Unmarshal(out.Bytes(), &res); err != nil {
			t.Fatalf("decode output: %v\n%s", err, out.String())
		}
		if len(res.FinalOutput) == 0 {
			t.Fatalf("expected final output, got early response %q", res.EarlyResponse)
		}
		t.Logf("output:\n%s", out.String())
	})

	t.Run("off-topic query exits early", func(t *testing.T) {
		var out bytes.Buffer
		if err := runner.RunAsk(ctx, "What's a good pasta recipe?", &out); err != nil {
			t.Fatalf("RunAsk: %v", err)
		}
		var res struct {
			EarlyResponse string `json:"early_response"`
		}
		if err := json.Unmarshal(out.Bytes(), &res); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if res.EarlyResponse == "" {
			t.Fatalf("expected an early refusal:\n%s", out.String())
		}
	})
}
