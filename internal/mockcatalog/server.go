// Package mockcatalog implements a minimal in-memory stand-in for the
// program-catalog search API, for tests and local development.
package mockcatalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Program is one seeded catalog row.
type Program struct {
	Name    string `json:"name"`
	School  string `json:"school"`
	Degree  string `json:"degree"`
	Field   string `json:"field"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
	Query  string
}

// Server implements the catalog search surface over a seeded program list.
// Matching is a naive token check so tests stay deterministic.
type Server struct {
	mu       sync.Mutex
	programs []Program
	calls    []Call

	expectedAuthorization string
	failStatus            int
}

// New constructs a mock server seeded with the given programs.
func New(programs []Program) *Server {
	return &Server{programs: programs}
}

// SeedDefault returns a small default program list for local runs.
func SeedDefault() []Program {
	return []Program{
		{Name: "MBA", School: "Stanford GSB", Degree: "MBA", Field: "business", URL: "https://example.edu/stanford-mba", Summary: "Two-year MBA with a finance specialization track."},
		{Name: "MS Computer Science", School: "Georgia Tech", Degree: "MS", Field: "computer science", URL: "https://example.edu/gt-mscs", Summary: "Online and on-campus MS in computer science."},
		{Name: "BS Mechanical Engineering", School: "Purdue", Degree: "BS", Field: "engineering", URL: "https://example.edu/purdue-me", Summary: "ABET-accredited mechanical engineering program."},
	}
}

// RequireBearerToken enforces that requests include an Authorization header
// matching the token. If token is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + token
}

// FailWith makes every search respond with the given status code until
// called again with 0. Used to exercise client error handling.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/programs/search", s.handleSearch)
	return mux
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
	expected := s.expectedAuthorization
	failStatus := s.failStatus
	programs := make([]Program, len(s.programs))
	copy(programs, s.programs)
	s.mu.Unlock()

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported")
		return
	}
	if expected != "" && r.Header.Get("Authorization") != expected {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid bearer token")
		return
	}
	if failStatus != 0 {
		writeError(w, failStatus, "INJECTED_FAILURE", "failure injected by test")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "query is required")
		return
	}
	limit := 10
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	matches := match(programs, query)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"programs": matches})
}

// match returns programs sharing at least one token with the query.
func match(programs []Program, query string) []Program {
	tokens := strings.Fields(strings.ToLower(query))
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		haystack := strings.ToLower(strings.Join([]string{p.Name, p.School, p.Degree, p.Field, p.Summary}, " "))
		for _, tok := range tokens {
			if len(tok) < 3 {
				continue
			}
			if strings.Contains(haystack, tok) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"errorCode": code,
		"message":   message,
	})
}
