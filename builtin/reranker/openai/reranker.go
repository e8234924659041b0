// Package openai implements Reranker by prompt-scoring documents with an
// OpenAI chat model. Intended as a fallback when no dedicated rerank API
// is available.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// Default values
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultMaxDocs = 100
)

// Config contains OpenAI reranker configuration.
type Config struct {
	Model   string
	BaseURL string // optional, for OpenAI-compatible endpoints
	MaxDocs int
}

// Reranker implements the Reranker interface by asking a chat model to
// score each document against the query.
type Reranker struct {
	config Config
}

// New creates a new OpenAI reranker.
func New(cfg Config) *Reranker {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxDocs == 0 {
		cfg.MaxDocs = DefaultMaxDocs
	}

	return &Reranker{config: cfg}
}

// Name returns the reranker name.
func (r *Reranker) Name() string {
	return "openai"
}

// Rerank scores documents with a single chat completion. The credential
// arrives on the request, so the client is built per call and discarded
// with it. Results are sorted by score descending.
func (r *Reranker) Rerank(ctx context.Context, req *types.RerankRequest) ([]types.RerankResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	docs := req.Documents
	if len(docs) > r.config.MaxDocs {
		docs = docs[:r.config.MaxDocs]
	}

	clientConfig := openai.DefaultConfig(req.APIKey)
	if r.config.BaseURL != "" {
		clientConfig.BaseURL = r.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.config.Model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildRerankPrompt(req.Query, docs),
			},
		},
	})
	if err != nil {
		return nil, translateError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.NewResponseFormatError("Invalid API response format")
	}

	scores := parseScores(resp.Choices[0].Message.Content, len(docs))

	results := make([]types.RerankResult, len(scores))
	for i, score := range scores {
		results[i] = types.RerankResult{
			Index:          i,
			RelevanceScore: score,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	return results, nil
}

// buildRerankPrompt creates the scoring prompt.
func buildRerankPrompt(query string, documents []string) string {
	var b strings.Builder

	b.WriteString("Rate the relevance of each document to the query on a scale of 0.0 to 1.0.\n")
	b.WriteString("Output only the scores in order, one per line, as decimal numbers.\n\n")
	fmt.Fprintf(&b, "Query: %s\n\n", query)
	b.WriteString("Documents:\n")

	for i, doc := range documents {
		// Truncate very long documents
		content := doc
		if len(content) > 1000 {
			content = content[:1000] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, content)
	}

	b.WriteString("Relevance scores (0.0 to 1.0, one per line):\n")

	return b.String()
}

// scorePattern matches decimal numbers like 0.85, .9, 1.0
var scorePattern = regexp.MustCompile(`\b(0?\.\d+|1\.0|0|1)\b`)

// parseScores extracts scores from the model response. Unparseable
// positions fall back to 0.5.
func parseScores(response string, numDocs int) []float64 {
	scores := make([]float64, numDocs)
	for i := range scores {
		scores[i] = 0.5
	}

	matches := scorePattern.FindAllString(response, numDocs)
	for i, match := range matches {
		if i >= numDocs {
			break
		}
		if score, err := strconv.ParseFloat(match, 64); err == nil {
			if score >= 0 && score <= 1 {
				scores[i] = score
			}
		}
	}

	return scores
}

// translateError maps go-openai failures onto the error taxonomy.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return translateStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return translateStatus(reqErr.HTTPStatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewTimeoutError()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewTimeoutError()
	}

	return types.NewNetworkError(err)
}

func translateStatus(status int, err error) error {
	switch status {
	case 401:
		return types.NewAuthenticationError()
	case 429:
		return types.NewRateLimitError()
	case 0:
		return types.NewUnknownError(err)
	default:
		return types.NewRemoteError(status)
	}
}

// MaxDocuments returns the maximum documents for reranking.
func (r *Reranker) MaxDocuments() int {
	return r.config.MaxDocs
}

// Close releases resources.
func (r *Reranker) Close() error {
	return nil
}

// Ensure Reranker implements the Reranker interface
var _ provider.Reranker = (*Reranker)(nil)
