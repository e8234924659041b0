// mcp-rerank is an MCP server exposing document reranking as a tool.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/zeroentropy-ai/mcp-rerank/builtin"
	"github.com/zeroentropy-ai/mcp-rerank/internal/config"
	"github.com/zeroentropy-ai/mcp-rerank/internal/mcp"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/plugin/host"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/provider"
	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

var (
	version   = "0.1.0"
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mcp-rerank",
	Short: "MCP server for document reranking",
	Long: `mcp-rerank is an MCP server that exposes document reranking as a
single tool. Given a query, candidate documents, and an API key, it
calls a remote scoring service (ZeroEntropy by default) and returns
document indices with relevance scores.

The API key is supplied per request by the caller; the server stores
no credentials and no state.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel, logFormat)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mcp-rerank %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var rerankCmd = &cobra.Command{
	Use:   "rerank <query> [document...]",
	Short: "Rerank documents from the command line",
	Long: `Rerank documents against a query without going through MCP.
Documents are given as arguments or read from a file (one per line).
The API key comes from --api-key or the ZEROENTROPY_API_KEY
environment variable.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		apiKey, _ := cmd.Flags().GetString("api-key")
		docsFile, _ := cmd.Flags().GetString("docs-file")
		runRerank(args[0], args[1:], docsFile, apiKey)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Run: func(cmd *cobra.Command, args []string) {
		runInit()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfig()
	},
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage reranker plugins",
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	Run: func(cmd *cobra.Command, args []string) {
		runPluginList()
	},
}

var pluginLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Load a plugin and verify it responds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runPluginLoad(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rerankCmd.Flags().String("api-key", "", "API key for the scoring service")
	rerankCmd.Flags().String("docs-file", "", "file with one document per line")

	pluginCmd.AddCommand(pluginListCmd)
	pluginCmd.AddCommand(pluginLoadCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rerankCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(pluginCmd)
}

// setupLogging configures slog on stderr. Stdout belongs to the MCP
// transport and must stay clean.
func setupLogging(levelStr, formatStr string) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if formatStr == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// applyLogging applies config-level logging unless flags override it.
func applyLogging(cfg *config.Config) {
	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	format := logFormat
	if format == "" {
		format = cfg.Logging.Format
	}
	setupLogging(level, format)
}

// createReranker builds the configured reranker, loading a plugin when
// the provider name carries the plugin: prefix.
func createReranker(cfg *config.Config, manager *host.Manager) (provider.Reranker, error) {
	if name, ok := strings.CutPrefix(cfg.Reranker.Provider, "plugin:"); ok {
		loaded, err := manager.LoadPlugin(name)
		if err != nil {
			return nil, err
		}
		return host.NewRerankerAdapter(loaded.Reranker), nil
	}

	return provider.CreateReranker(cfg.Reranker.Provider, provider.RerankerConfig{
		Provider: cfg.Reranker.Provider,
		Model:    cfg.Reranker.Model,
		Endpoint: cfg.Reranker.Endpoint,
		Timeout:  cfg.Reranker.Timeout,
		MaxDocs:  cfg.Reranker.MaxDocuments,
	})
}

// loadConfigOrExit loads and validates the config for the current directory.
func loadConfigOrExit() (string, *config.Config) {
	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to get working directory", "error", err)
		os.Exit(1)
	}

	cfg, warnings, err := config.Load(cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Debug(w)
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, err := range errs {
			slog.Error("invalid config", "error", err)
		}
		os.Exit(1)
	}

	applyLogging(cfg)
	return cwd, cfg
}

func runServe() {
	cwd, cfg := loadConfigOrExit()

	slog.Info("starting MCP server", "provider", cfg.Reranker.Provider)

	manager := host.NewManager(config.PluginsDir(cwd, cfg))

	reranker, err := createReranker(cfg, manager)
	if err != nil {
		slog.Error("failed to create reranker", "error", err)
		os.Exit(1)
	}

	srv, err := mcp.New(mcp.Config{
		Config:   cfg,
		Reranker: reranker,
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-reload the config file while serving.
	watcher, err := config.NewWatcher(config.WatcherConfig{
		Root:    cwd,
		Current: cfg,
		OnChange: func(newCfg *config.Config) {
			applyLogging(newCfg)

			newReranker, err := createReranker(newCfg, manager)
			if err != nil {
				slog.Warn("keeping previous reranker", "error", err)
				return
			}
			if old := srv.SetReranker(newReranker); old != nil {
				if err := old.Close(); err != nil {
					slog.Warn("failed to close previous reranker", "error", err)
				}
			}
		},
	})
	if err != nil {
		slog.Error("failed to create config watcher", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			slog.Warn("config watcher stopped", "error", err)
		}
	}()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		if err := srv.Reranker().Close(); err != nil {
			slog.Warn("failed to close reranker", "error", err)
		}
		manager.UnloadAll()
		slog.Info("shutdown complete")
		os.Exit(0)
	}()

	defer func() {
		signal.Stop(sigChan)
		srv.Reranker().Close()
		manager.UnloadAll()
	}()

	if err := srv.ServeStdio(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runRerank(query string, documents []string, docsFile, apiKey string) {
	cwd, cfg := loadConfigOrExit()

	if docsFile != "" {
		fileDocs, err := readDocuments(docsFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		documents = append(documents, fileDocs...)
	}

	if apiKey == "" {
		apiKey = os.Getenv("ZEROENTROPY_API_KEY")
	}

	manager := host.NewManager(config.PluginsDir(cwd, cfg))
	defer manager.UnloadAll()

	reranker, err := createReranker(cfg, manager)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer reranker.Close()

	results, err := reranker.Rerank(context.Background(), &types.RerankRequest{
		Query:     query,
		Documents: documents,
		APIKey:    apiKey,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	response := types.RerankResponse{Results: results}
	jsonResult, _ := json.MarshalIndent(response, "", "  ")
	fmt.Println(string(jsonResult))
}

// readDocuments reads one document per non-empty line.
func readDocuments(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			docs = append(docs, line)
		}
	}
	return docs, scanner.Err()
}

func runInit() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	path := config.ConfigPath(cwd)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return
	}

	if err := config.Save(cwd, config.DefaultConfig()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config: %s\n", path)
}

func runConfig() {
	_, cfg := loadConfigOrExit()

	jsonResult, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(jsonResult))
}

func runPluginList() {
	cwd, cfg := loadConfigOrExit()

	pluginsDir := config.PluginsDir(cwd, cfg)
	manager := host.NewManager(pluginsDir)

	available, err := manager.DiscoverPlugins()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Plugins directory: %s\n\n", pluginsDir)

	if len(available) == 0 {
		fmt.Println("No plugins found.")
		fmt.Println("\nTo install a plugin:")
		fmt.Println("  1. Build or download a reranker plugin binary")
		fmt.Println("  2. Copy it to", pluginsDir)
		fmt.Println("  3. Set reranker.provider to plugin:<name> in config.yaml")
		return
	}

	fmt.Println("Available plugins:")
	for _, name := range available {
		fmt.Printf("  %s\n", name)
	}
}

func runPluginLoad(name string) {
	cwd, cfg := loadConfigOrExit()

	manager := host.NewManager(config.PluginsDir(cwd, cfg))
	defer manager.UnloadAll()

	loaded, err := manager.LoadPlugin(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Loaded plugin: %s\n", loaded.Reranker.Name())
	fmt.Printf("Max documents: %d\n", loaded.Reranker.MaxDocuments())
}
