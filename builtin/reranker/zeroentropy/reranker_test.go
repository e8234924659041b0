package zeroentropy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

func testRequest() *types.RerankRequest {
	return &types.RerankRequest{
		Query:     "which document mentions go",
		Documents: []string{"python is popular", "go is fast", "rust is safe"},
		APIKey:    "test-key",
	}
}

// newTestReranker points a reranker at a mock endpoint and counts the
// requests it receives.
func newTestReranker(t *testing.T, handler http.HandlerFunc) (*Reranker, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return New(Config{Endpoint: srv.URL}), &calls
}

func successHandler(results string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": ` + results + `}`))
	}
}

func TestRerankSuccessPreservesRemoteOrder(t *testing.T) {
	// Remote order is deliberately not sorted by score; the adapter
	// must not reorder it.
	r, calls := newTestReranker(t, successHandler(
		`[{"index": 2, "relevance_score": 0.1}, {"index": 0, "relevance_score": 0.9}, {"index": 1, "relevance_score": 0.5}]`,
	))

	results, err := r.Rerank(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}

	want := []types.RerankResult{
		{Index: 2, RelevanceScore: 0.1},
		{Index: 0, RelevanceScore: 0.9},
		{Index: 1, RelevanceScore: 0.5},
	}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Rerank() = %+v, want %+v", results, want)
	}
	if calls.Load() != 1 {
		t.Errorf("remote calls = %d, want 1", calls.Load())
	}
}

func TestRerankSendsBearerAndBody(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]any

	r, _ := newTestReranker(t, func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotContentType = req.Header.Get("Content-Type")
		json.NewDecoder(req.Body).Decode(&gotBody)
		successHandler(`[{"index": 0, "relevance_score": 1.0}]`)(w, req)
	})

	if _, err := r.Rerank(context.Background(), testRequest()); err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-key")
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want %q", gotContentType, "application/json")
	}
	if _, ok := gotBody["query"]; !ok {
		t.Error("body missing query")
	}
	if _, ok := gotBody["documents"]; !ok {
		t.Error("body missing documents")
	}
	// The credential must never travel in the body.
	if _, ok := gotBody["api_key"]; ok {
		t.Error("body contains api_key")
	}
}

func TestRerankValidationSkipsNetworkCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.RerankRequest)
	}{
		{"whitespace document", func(r *types.RerankRequest) { r.Documents = []string{"fine", "   "} }},
		{"empty query", func(r *types.RerankRequest) { r.Query = "" }},
		{"query over limit", func(r *types.RerankRequest) { r.Query = strings.Repeat("a", types.MaxQueryLength+1) }},
		{"missing api key", func(r *types.RerankRequest) { r.APIKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, calls := newTestReranker(t, successHandler(`[{"index": 0, "relevance_score": 1.0}]`))

			req := testRequest()
			tt.mutate(req)

			_, err := r.Rerank(context.Background(), req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := types.KindOf(err); got != types.KindValidation {
				t.Errorf("KindOf(err) = %v, want %v", got, types.KindValidation)
			}
			if calls.Load() != 0 {
				t.Errorf("remote calls = %d, want 0", calls.Load())
			}
		})
	}
}

func TestRerankQueryLengthBoundary(t *testing.T) {
	r, _ := newTestReranker(t, successHandler(`[{"index": 0, "relevance_score": 1.0}]`))

	req := testRequest()
	req.Query = strings.Repeat("a", types.MaxQueryLength)

	if _, err := r.Rerank(context.Background(), req); err != nil {
		t.Fatalf("query at limit failed: %v", err)
	}
}

func TestRerankErrorStatuses(t *testing.T) {
	tests := []struct {
		status  int
		kind    types.ErrorKind
		message string
	}{
		{http.StatusUnauthorized, types.KindAuthentication, "Invalid API key"},
		{http.StatusTooManyRequests, types.KindRateLimit, "Rate limit exceeded"},
		{http.StatusInternalServerError, types.KindRemote, "API error: 500"},
		{http.StatusBadRequest, types.KindRemote, "API error: 400"},
		{http.StatusServiceUnavailable, types.KindRemote, "API error: 503"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			r, _ := newTestReranker(t, func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := r.Rerank(context.Background(), testRequest())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := types.KindOf(err); got != tt.kind {
				t.Errorf("KindOf(err) = %v, want %v", got, tt.kind)
			}
			if err.Error() != tt.message {
				t.Errorf("error = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestRerankMissingResultsKey(t *testing.T) {
	r, _ := newTestReranker(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"scores": [0.5]}`))
	})

	_, err := r.Rerank(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := types.KindOf(err); got != types.KindResponseFormat {
		t.Errorf("KindOf(err) = %v, want %v", got, types.KindResponseFormat)
	}
	if err.Error() != "Invalid API response format" {
		t.Errorf("error = %q, want %q", err.Error(), "Invalid API response format")
	}
}

func TestRerankResponseValidation(t *testing.T) {
	tests := []struct {
		name    string
		results string
		kind    types.ErrorKind
	}{
		{"empty results", `[]`, types.KindResponseFormat},
		{"null results", `null`, types.KindResponseFormat},
		{"score over range", `[{"index": 0, "relevance_score": 1.5}]`, types.KindResponseFormat},
		{"negative score", `[{"index": 0, "relevance_score": -0.5}]`, types.KindResponseFormat},
		{"index over range", `[{"index": 1001, "relevance_score": 0.5}]`, types.KindResponseFormat},
		{"wrong score type", `[{"index": 0, "relevance_score": "high"}]`, types.KindResponseFormat},
		{"wrong index type", `[{"index": "first", "relevance_score": 0.5}]`, types.KindResponseFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestReranker(t, successHandler(tt.results))

			_, err := r.Rerank(context.Background(), testRequest())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := types.KindOf(err); got != tt.kind {
				t.Errorf("KindOf(err) = %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestRerankScoreBoundaries(t *testing.T) {
	r, _ := newTestReranker(t, successHandler(
		`[{"index": 0, "relevance_score": 1.0}, {"index": 1, "relevance_score": 0.0}]`,
	))

	results, err := r.Rerank(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("boundary scores rejected: %v", err)
	}
	if results[0].RelevanceScore != 1.0 || results[1].RelevanceScore != 0.0 {
		t.Errorf("scores = %+v, want exactly 1.0 and 0.0", results)
	}
}

func TestRerankNonJSONBody(t *testing.T) {
	r, _ := newTestReranker(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := r.Rerank(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := types.KindOf(err); got != types.KindUnknown {
		t.Errorf("KindOf(err) = %v, want %v", got, types.KindUnknown)
	}
}

func TestRerankTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	r := New(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond})

	_, err := r.Rerank(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if got := types.KindOf(err); got != types.KindTimeout {
		t.Errorf("KindOf(err) = %v, want %v", got, types.KindTimeout)
	}
	if err.Error() != "Request timed out" {
		t.Errorf("error = %q, want %q", err.Error(), "Request timed out")
	}
}

func TestRerankConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close() // nothing listens here anymore

	r := New(Config{Endpoint: endpoint})

	_, err := r.Rerank(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected network error")
	}
	if got := types.KindOf(err); got != types.KindNetwork {
		t.Errorf("KindOf(err) = %v, want %v", got, types.KindNetwork)
	}
}

func TestRerankIdempotent(t *testing.T) {
	r, _ := newTestReranker(t, successHandler(
		`[{"index": 1, "relevance_score": 0.8}, {"index": 0, "relevance_score": 0.3}]`,
	))

	first, err := r.Rerank(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("first Rerank() error = %v", err)
	}
	second, err := r.Rerank(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("second Rerank() error = %v", err)
	}

	firstJSON, _ := json.Marshal(types.RerankResponse{Results: first})
	secondJSON, _ := json.Marshal(types.RerankResponse{Results: second})
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("responses differ:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestNewDefaults(t *testing.T) {
	r := New(Config{})

	if r.config.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %q, want %q", r.config.Endpoint, DefaultEndpoint)
	}
	if r.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", r.config.Timeout, DefaultTimeout)
	}
	if r.Name() != "zeroentropy" {
		t.Errorf("Name() = %q, want %q", r.Name(), "zeroentropy")
	}
	if r.MaxDocuments() != types.MaxDocuments {
		t.Errorf("MaxDocuments() = %d, want %d", r.MaxDocuments(), types.MaxDocuments)
	}
}
