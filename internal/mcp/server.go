// Package mcp implements the MCP server exposing the rerank tool.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zeroentropy-ai/mcp-rerank/internal/config"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// Server implements the MCP server.
type Server struct {
	mcpServer *server.MCPServer
	config    *config.Config

	mu       sync.RWMutex
	reranker provider.Reranker
}

// Config contains server configuration.
type Config struct {
	Config   *config.Config
	Reranker provider.Reranker
}

// New creates a new MCP server.
func New(cfg Config) (*Server, error) {
	s := &Server{
		config:   cfg.Config,
		reranker: cfg.Reranker,
	}

	mcpServer := server.NewMCPServer(
		"mcp-rerank",
		"0.1.0",
		server.WithLogging(),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

// registerTools registers all MCP tools.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	// rerank - Score documents by relevance to a query
	mcpServer.AddTool(mcp.NewTool("rerank",
		mcp.WithDescription("Rerank documents by relevance to a query using a remote scoring model"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query to score documents against (1-10000 characters)")),
		mcp.WithArray("documents", mcp.Required(), mcp.Description("Candidate documents to rerank (1-1000 non-empty strings)")),
		mcp.WithString("api_key", mcp.Required(), mcp.Description("API key for the scoring service, sent as a bearer credential")),
	), s.handleRerank)
}

// handleRerank runs one rerank invocation: validate, one remote call,
// validate the result, return it. Failures surface as tool errors.
func (s *Server) handleRerank(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rerankReq := &types.RerankRequest{
		Query:     req.GetString("query", ""),
		Documents: req.GetStringSlice("documents", nil),
		APIKey:    req.GetString("api_key", ""),
	}

	// Never log query content or the credential.
	slog.Debug("rerank request", "documents", len(rerankReq.Documents))

	results, err := s.Reranker().Rerank(ctx, rerankReq)
	if err != nil {
		slog.Debug("rerank failed", "kind", types.KindOf(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := types.RerankResponse{Results: results}
	jsonResult, _ := json.MarshalIndent(response, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

// Reranker returns the reranker currently in use.
func (s *Server) Reranker() provider.Reranker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reranker
}

// SetReranker swaps the reranker, returning the previous one. Used by
// the config watcher; in-flight calls keep the instance they started
// with.
func (s *Server) SetReranker(r provider.Reranker) provider.Reranker {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.reranker
	s.reranker = r
	return old
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
