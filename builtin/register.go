// Package builtin registers all built-in rerankers with the default registry.
package builtin

import (
	"time"

	"github.com/zeroentropy-ai/mcp-rerank/builtin/reranker/none"
	openaiRerank "github.com/zeroentropy-ai/mcp-rerank/builtin/reranker/openai"
	"github.com/zeroentropy-ai/mcp-rerank/builtin/reranker/zeroentropy"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
)

func init() {
	provider.RegisterReranker("zeroentropy", func(cfg provider.RerankerConfig) (provider.Reranker, error) {
		timeout, err := parseTimeout(cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return zeroentropy.New(zeroentropy.Config{
			Endpoint: cfg.Endpoint,
			Timeout:  timeout,
		}), nil
	})

	provider.RegisterReranker("openai", func(cfg provider.RerankerConfig) (provider.Reranker, error) {
		return openaiRerank.New(openaiRerank.Config{
			Model:   cfg.Model,
			BaseURL: cfg.Endpoint,
			MaxDocs: cfg.MaxDocs,
		}), nil
	})

	provider.RegisterReranker("none", func(cfg provider.RerankerConfig) (provider.Reranker, error) {
		return none.New(), nil
	})
}

// parseTimeout parses the config timeout string, empty meaning default.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
