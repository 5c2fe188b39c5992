package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/admitpath/college-recommender/internal/mockcatalog"
)

func main() {
	addr := defaultString("MOCK_CATALOG_ADDR", ":8080")
	seedPath := defaultString("MOCK_CATALOG_SEED", "")
	token := defaultString("MOCK_CATALOG_TOKEN", "")

	fs := flag.NewFlagSet("mock-catalog", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&seedPath, "seed", seedPath, "JSON file with an array of programs to serve (default: built-in sample)")
	fs.StringVar(&token, "token", token, "Require this bearer token on requests (empty disables auth)")
	_ = fs.Parse(os.Args[1:])

	programs := mockcatalog.SeedDefault()
	if seedPath != "" {
		b, err := os.ReadFile(seedPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "read seed file: %v\n", err)
			os.Exit(2)
		}
		programs = nil
		if err := json.Unmarshal(b, &programs); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "parse seed file: %v\n", err)
			os.Exit(2)
		}
	}

	srv := mockcatalog.New(programs)
	srv.RequireBearerToken(token)

	_, _ = fmt.Fprintf(os.Stdout, "mock-catalog listening on %s (programs=%d auth=%t)\n", addr, len(programs), token != "")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
