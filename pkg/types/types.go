// Package types defines the request-scoped values and classified errors
// shared across the server. All values are constructed, validated, and
// discarded within a single tool invocation.
package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits enforced at the data-model boundary.
const (
	// MaxQueryLength is the maximum query length in Unicode code points.
	MaxQueryLength = 10000

	// MaxDocuments is the maximum number of candidate documents per request.
	MaxDocuments = 1000

	// MaxResults is the maximum number of results in a response.
	MaxResults = 1000

	// MaxResultIndex is the maximum document index a result may carry.
	MaxResultIndex = 1000
)

// RerankRequest is a single reranking request. The API key is an opaque
// bearer credential and is never serialized into the request body.
type RerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	APIKey    string   `json:"-"`
}

// Validate checks the request against the data-model limits. It runs
// before any network I/O and reports the first offending field.
func (r *RerankRequest) Validate() error {
	if r.Query == "" {
		return NewValidationError("query", "must not be empty")
	}
	if n := utf8.RuneCountInString(r.Query); n > MaxQueryLength {
		return NewValidationError("query", fmt.Sprintf("must be at most %d characters, got %d", MaxQueryLength, n))
	}
	if len(r.Documents) == 0 {
		return NewValidationError("documents", "must contain at least one document")
	}
	if len(r.Documents) > MaxDocuments {
		return NewValidationError("documents", fmt.Sprintf("must contain at most %d documents, got %d", MaxDocuments, len(r.Documents)))
	}
	for i, doc := range r.Documents {
		if strings.TrimSpace(doc) == "" {
			return NewValidationError(fmt.Sprintf("documents[%d]", i), "must not be empty")
		}
	}
	if r.APIKey == "" {
		return NewValidationError("api_key", "must not be empty")
	}
	return nil
}

// RerankResult is a single scored document. Index references a position
// in the original documents slice as reported by the scoring service.
type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RerankResponse is an ordered list of results. Order is exactly the
// order the scoring service supplied.
type RerankResponse struct {
	Results []RerankResult `json:"results"`
}

// Validate checks the response shape and per-result ranges. An empty
// result set is invalid, not "no matches". Violations are reported as
// response-format errors naming the offending entry and field.
func (r *RerankResponse) Validate() error {
	if len(r.Results) == 0 {
		return NewResponseFormatError("results must contain at least one entry")
	}
	if len(r.Results) > MaxResults {
		return NewResponseFormatError(fmt.Sprintf("results must contain at most %d entries, got %d", MaxResults, len(r.Results)))
	}
	for i, res := range r.Results {
		if res.Index < 0 || res.Index > MaxResultIndex {
			return NewResponseFormatError(fmt.Sprintf("results[%d].index out of range: %d", i, res.Index))
		}
		if res.RelevanceScore < 0 || res.RelevanceScore > 1 {
			return NewResponseFormatError(fmt.Sprintf("results[%d].relevance_score out of range: %g", i, res.RelevanceScore))
		}
	}
	return nil
}
