package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/admitpath/college-recommender/internal/app"
	classifygemini "github.com/admitpath/college-recommender/internal/classify/gemini"
	"github.com/admitpath/college-recommender/internal/config"
	"github.com/admitpath/college-recommender/internal/retrieve"
	"github.com/admitpath/college-recommender/internal/retrieve/catalog"
	retrievegemini "github.com/admitpath/college-recommender/internal/retrieve/gemini"
	"github.com/admitpath/college-recommender/internal/util"
	webgemini "github.com/admitpath/college-recommender/internal/websearch/gemini"
	"github.com/admitpath/college-recommender/internal/worker"
)

func main() {
	// Best effort, matching local dev habits; real deployments set env directly.
	_ = godotenv.Load()

	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "ask":
		os.Exit(runAsk(ctx, os.Args[2:]))
	case "batch":
		os.Exit(runBatch(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runAsk(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Optional YAML config file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		_, _ = fmt.Fprintln(os.Stderr, "ask requires a query, e.g.: recommender ask What MBA programs does Stanford offer?")
		return 2
	}

	runner, err := buildRunner(ctx, *configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	if err := runner.RunAsk(ctx, query, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ask failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	return 0
}

func runBatch(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Optional YAML config file path")
	inputPath := fs.String("input", "", "Input CSV file path (must include a 'query' column)")
	outputPath := fs.String("output", "", "Output CSV file path")
	workers := fs.Int("workers", 0, "Concurrent pipeline invocations (env: WORKERS)")
	requestTimeout := fs.Duration("request-timeout", 0, "Per-invocation timeout (env: REQUEST_TIMEOUT)")
	rateLimitRPS := fs.Float64("rate-limit-rps", 0, "Global invocation rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *inputPath == "" || *outputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "batch requires --input and --output")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}
	if *requestTimeout > 0 {
		cfg.Pipeline.RequestTimeout = *requestTimeout
	}
	if *rateLimitRPS > 0 {
		cfg.Pipeline.RateLimitRPS = *rateLimitRPS
	}

	runner, err := buildRunnerFromConfig(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	opts := worker.Options{
		Workers: cfg.Pipeline.Workers,
		// One attempt per invocation; the pipeline never errors anyway.
		MaxRetries: 0,
		// Batch invocations cover several service calls each, so the
		// per-invocation budget is wider than a single request timeout.
		RequestTimeout: 4 * cfg.Pipeline.RequestTimeout,
		RateLimitRPS:   cfg.Pipeline.RateLimitRPS,
		FailurePolicy:  worker.FailurePolicyPartialOutput,
	}
	if err := runner.RunBatch(ctx, *inputPath, *outputPath, opts); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "batch failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	return 0
}

func buildRunner(ctx context.Context, configPath string) (*app.Runner, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return buildRunnerFromConfig(ctx, cfg)
}

func buildRunnerFromConfig(ctx context.Context, cfg config.Config) (*app.Runner, error) {
	classifier, err := classifygemini.New(ctx, classifygemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	knowledge, err := retrievegemini.New(ctx, retrievegemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	// The catalog source is optional: without CATALOG_URL the combined
	// service runs on the knowledge base alone.
	var catalogSource retrieve.Source
	if strings.TrimSpace(cfg.Catalog.BaseURL) != "" {
		client, err := catalog.NewClient(catalog.Config{
			BaseURL: cfg.Catalog.BaseURL,
			Token:   cfg.Catalog.Token,
			Limit:   cfg.Catalog.Limit,
			Timeout: cfg.Catalog.Timeout,
		})
		if err != nil {
			return nil, err
		}
		catalogSource = client
	}

	retriever := retrieve.NewService(catalogSource, knowledge, knowledge, retrieve.Options{
		MaxRetries:     cfg.Pipeline.MaxRetries,
		RequestTimeout: cfg.Pipeline.RequestTimeout,
		RateLimitRPS:   cfg.Pipeline.RateLimitRPS,
	})

	web, err := webgemini.New(ctx, webgemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	return app.NewRunner(classifier, retriever, web, logger)
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `recommender: college recommendation pipeline (ask + batch modes)

Usage:
  recommender <command> [flags]

Commands:
  ask      Answer a single query, JSON result on stdout
  batch    Run a CSV of queries through the pipeline concurrently

Examples:
  recommender ask What MBA programs does Stanford offer for finance?
  recommender batch --input queries.csv --output results.csv

Environment:
  GEMINI_API_KEY   Gemini API key (required)
  GEMINI_MODEL     Gemini model name (default gemini-2.5-flash)
  GEMINI_BASE_URL  Optional base URL override (proxies/testing)
  CATALOG_URL      Program catalog API base URL (optional)
  CATALOG_TOKEN    Bearer token for the catalog API (optional)
  WORKERS, REQUEST_TIMEOUT, RATE_LIMIT_RPS, MAX_RETRIES
                   Pipeline tuning, see also --config

A .env file in the working directory is loaded if present.

`)
}
