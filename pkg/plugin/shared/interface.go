// Package shared defines shared interfaces and types for external plugins.
package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is a common handshake that is shared by plugin and host.
// Prevents plugins compiled with different versions from running.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MCP_RERANK_PLUGIN",
	MagicCookieValue: "mcp-rerank-v1",
}

// PluginType identifies the type of plugin.
type PluginType string

const (
	PluginTypeReranker PluginType = "reranker"
)

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	string(PluginTypeReranker): &RerankerPlugin{},
}

// RerankerProvider is the interface that reranker plugins must implement.
// This mirrors pkg/provider.Reranker but is self-contained for plugins;
// the API key is forwarded per call and must not be persisted.
type RerankerProvider interface {
	Name() string
	Rerank(query string, documents []string, apiKey string) ([]RerankResult, error)
	MaxDocuments() int
	Close() error
}

// RerankResult represents a reranking result.
type RerankResult struct {
	Index int
	Score float64
}

// RerankerPlugin is the plugin.Plugin implementation for reranker providers.
type RerankerPlugin struct {
	Impl RerankerProvider
}

func (p *RerankerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RerankerRPCServer{Impl: p.Impl}, nil
}

func (p *RerankerPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RerankerRPCClient{client: c}, nil
}
