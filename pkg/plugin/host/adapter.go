package host

import (
	"context"

	"github.com/zeroentropy-ai/mcp-rerank/pkg/plugin/shared"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// RerankerAdapter adapts a plugin RerankerProvider to the provider.Reranker interface.
type RerankerAdapter struct {
	plugin shared.RerankerProvider
}

// NewRerankerAdapter creates a new reranker adapter.
func NewRerankerAdapter(p shared.RerankerProvider) *RerankerAdapter {
	return &RerankerAdapter{plugin: p}
}

// Name returns the provider name.
func (a *RerankerAdapter) Name() string {
	return a.plugin.Name()
}

// Rerank validates the request, then forwards it over the plugin RPC.
// The net/rpc call carries no context, so cancellation is only checked
// before the call.
func (a *RerankerAdapter) Rerank(ctx context.Context, req *types.RerankRequest) ([]types.RerankResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	results, err := a.plugin.Rerank(req.Query, req.Documents, req.APIKey)
	if err != nil {
		return nil, types.NewUnknownError(err)
	}

	converted := make([]types.RerankResult, len(results))
	for i, r := range results {
		converted[i] = types.RerankResult{
			Index:          r.Index,
			RelevanceScore: r.Score,
		}
	}

	response := types.RerankResponse{Results: converted}
	if err := response.Validate(); err != nil {
		return nil, err
	}

	return converted, nil
}

// MaxDocuments returns the maximum number of documents.
func (a *RerankerAdapter) MaxDocuments() int {
	return a.plugin.MaxDocuments()
}

// Close closes the provider.
func (a *RerankerAdapter) Close() error {
	return a.plugin.Close()
}

// Ensure RerankerAdapter implements provider.Reranker
var _ provider.Reranker = (*RerankerAdapter)(nil)
