// Package none implements a passthrough Reranker that preserves the
// caller's document order without contacting any scoring service.
package none

import (
	"context"

	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// Reranker is a passthrough reranker that assigns decreasing scores.
type Reranker struct{}

// New creates a new passthrough reranker.
func New() *Reranker {
	return &Reranker{}
}

// Name returns the reranker name.
func (r *Reranker) Name() string {
	return "none"
}

// Rerank returns the documents in their original order. Scores decrease
// linearly so downstream consumers sorting by score keep the input order.
func (r *Reranker) Rerank(ctx context.Context, req *types.RerankRequest) ([]types.RerankResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results := make([]types.RerankResult, len(req.Documents))
	for i := range req.Documents {
		results[i] = types.RerankResult{
			Index:          i,
			RelevanceScore: float64(len(req.Documents)-i) / float64(len(req.Documents)),
		}
	}
	return results, nil
}

// MaxDocuments returns the maximum documents for reranking.
func (r *Reranker) MaxDocuments() int {
	return types.MaxDocuments
}

// Close does nothing.
func (r *Reranker) Close() error {
	return nil
}

// Ensure Reranker implements the Reranker interface
var _ provider.Reranker = (*Reranker)(nil)
