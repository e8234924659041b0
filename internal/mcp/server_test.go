package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zeroentropy-ai/mcp-rerank/internal/config"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// stubReranker records calls and returns canned output.
type stubReranker struct {
	calls   int
	lastReq *types.RerankRequest
	results []types.RerankResult
	err     error
}

func (s *stubReranker) Name() string { return "stub" }
func (s *stubReranker) Rerank(ctx context.Context, req *types.RerankRequest) ([]types.RerankResult, error) {
	s.calls++
	s.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}
func (s *stubReranker) MaxDocuments() int { return types.MaxDocuments }
func (s *stubReranker) Close() error      { return nil }

func newTestServer(t *testing.T, stub *stubReranker) *Server {
	t.Helper()

	srv, err := New(Config{
		Config:   config.DefaultConfig(),
		Reranker: stub,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func callRerank(t *testing.T, srv *Server, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Name = "rerank"
	req.Params.Arguments = args

	result, err := srv.handleRerank(context.Background(), req)
	if err != nil {
		t.Fatalf("handleRerank() error = %v", err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("content is not text: %T", result.Content[0])
	}
	return text.Text
}

func TestHandleRerankSuccess(t *testing.T) {
	stub := &stubReranker{
		results: []types.RerankResult{
			{Index: 1, RelevanceScore: 0.9},
			{Index: 0, RelevanceScore: 0.4},
		},
	}
	srv := newTestServer(t, stub)

	result := callRerank(t, srv, map[string]any{
		"query":     "which doc",
		"documents": []any{"doc one", "doc two"},
		"api_key":   "test-key",
	})

	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var response types.RerankResponse
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}

	if len(response.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(response.Results))
	}
	if response.Results[0].Index != 1 || response.Results[0].RelevanceScore != 0.9 {
		t.Errorf("results[0] = %+v, want index 1 score 0.9", response.Results[0])
	}

	if stub.calls != 1 {
		t.Errorf("reranker calls = %d, want 1", stub.calls)
	}
	if stub.lastReq.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want %q", stub.lastReq.APIKey, "test-key")
	}
	if len(stub.lastReq.Documents) != 2 {
		t.Errorf("documents = %v, want 2 entries", stub.lastReq.Documents)
	}
}

func TestHandleRerankValidationError(t *testing.T) {
	srv := newTestServer(t, &stubReranker{})

	result := callRerank(t, srv, map[string]any{
		"query":     "",
		"documents": []any{"doc"},
		"api_key":   "key",
	})

	if !result.IsError {
		t.Fatal("expected tool error result")
	}
	if text := resultText(t, result); text != "query: must not be empty" {
		t.Errorf("error text = %q, want validation message naming query", text)
	}
}

func TestHandleRerankRemoteError(t *testing.T) {
	stub := &stubReranker{err: types.NewRateLimitError()}
	srv := newTestServer(t, stub)

	result := callRerank(t, srv, map[string]any{
		"query":     "query",
		"documents": []any{"doc"},
		"api_key":   "key",
	})

	if !result.IsError {
		t.Fatal("expected tool error result")
	}
	if text := resultText(t, result); text != "Rate limit exceeded" {
		t.Errorf("error text = %q, want %q", text, "Rate limit exceeded")
	}
}

func TestHandleRerankMissingArguments(t *testing.T) {
	srv := newTestServer(t, &stubReranker{})

	result := callRerank(t, srv, map[string]any{})

	if !result.IsError {
		t.Fatal("expected tool error result")
	}
}

func TestSetReranker(t *testing.T) {
	first := &stubReranker{results: []types.RerankResult{{Index: 0, RelevanceScore: 0.5}}}
	second := &stubReranker{results: []types.RerankResult{{Index: 0, RelevanceScore: 0.7}}}
	srv := newTestServer(t, first)

	if old := srv.SetReranker(second); old != provider.Reranker(first) {
		t.Error("SetReranker did not return the previous reranker")
	}

	callRerank(t, srv, map[string]any{
		"query":     "query",
		"documents": []any{"doc"},
		"api_key":   "key",
	})

	if first.calls != 0 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 0/1", first.calls, second.calls)
	}
}
