// Package zeroentropy implements Reranker against the ZeroEntropy rerank API.
package zeroentropy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// Default values
const (
	DefaultEndpoint = "https://api.zeroentropy.dev/v1/models/rerank"
	DefaultTimeout  = 30 * time.Second
)

// Config contains ZeroEntropy reranker configuration.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, replaces the default client
}

// Reranker implements the Reranker interface using the ZeroEntropy API.
type Reranker struct {
	config Config
	client *http.Client
}

// New creates a new ZeroEntropy reranker.
func New(cfg Config) *Reranker {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Reranker{
		config: cfg,
		client: client,
	}
}

// Name returns the reranker name.
func (r *Reranker) Name() string {
	return "zeroentropy"
}

// wireRequest is the outbound body. The API key travels only in the
// Authorization header, never here.
type wireRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

// wireEnvelope distinguishes a missing results key from an empty one.
type wireEnvelope struct {
	Results json.RawMessage `json:"results"`
}

// Rerank validates the request, issues one POST to the rerank endpoint,
// and validates the response. The returned slice preserves exactly the
// order the service supplied. Every failure is a classified types.Error.
func (r *Reranker) Rerank(ctx context.Context, req *types.RerankRequest) ([]types.RerankResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(wireRequest{Query: req.Query, Documents: req.Documents})
	if err != nil {
		return nil, types.NewUnknownError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewUnknownError(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, types.NewAuthenticationError()
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewRateLimitError()
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, types.NewRemoteError(resp.StatusCode)
	}

	var envelope wireEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, types.NewUnknownError(err)
	}
	if envelope.Results == nil {
		return nil, types.NewResponseFormatError("Invalid API response format")
	}

	var results []types.RerankResult
	if err := json.Unmarshal(envelope.Results, &results); err != nil {
		return nil, types.NewResponseFormatError(fmt.Sprintf("results: %s", err))
	}

	response := types.RerankResponse{Results: results}
	if err := response.Validate(); err != nil {
		return nil, err
	}

	return results, nil
}

// classifyTransportError maps a transport failure onto the error
// taxonomy: timeouts first, everything else is a network error.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewTimeoutError()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewTimeoutError()
	}

	// Unwrap url.Error so the message carries the underlying cause.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return types.NewNetworkError(urlErr.Err)
	}

	return types.NewNetworkError(err)
}

// MaxDocuments returns the maximum documents for reranking.
func (r *Reranker) MaxDocuments() int {
	return types.MaxDocuments
}

// Close releases resources.
func (r *Reranker) Close() error {
	return nil
}

// Ensure Reranker implements the Reranker interface
var _ provider.Reranker = (*Reranker)(nil)
