// Package provider defines the reranker provider interface and registry.
package provider

import (
	"context"

	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// Reranker scores documents by relevance to a query via a remote model.
type Reranker interface {
	// Name returns the provider name (e.g., "zeroentropy", "none").
	Name() string

	// Rerank scores the request's documents against its query. The
	// request carries the bearer credential; providers must never
	// persist it. Results are returned in the order the backing
	// service supplied them.
	Rerank(ctx context.Context, req *types.RerankRequest) ([]types.RerankResult, error)

	// MaxDocuments returns the maximum number of documents per call.
	MaxDocuments() int

	// Close releases any resources.
	Close() error
}

// RerankerConfig contains configuration for reranker providers.
type RerankerConfig struct {
	Provider string // "zeroentropy", "openai", "none", "plugin:<name>"
	Model    string // model name, for providers that take one
	Endpoint string // API endpoint override
	Timeout  string // HTTP client timeout (Go duration string)
	MaxDocs  int    // maximum documents per call
}
