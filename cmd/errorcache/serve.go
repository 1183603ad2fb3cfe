package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/errorcache/errorcache-go/internal/api"
	"github.com/errorcache/errorcache-go/internal/config"
	"github.com/errorcache/errorcache-go/internal/errorcache"
	"github.com/errorcache/errorcache-go/internal/extract"
	"github.com/errorcache/errorcache-go/internal/hook"
	"github.com/errorcache/errorcache-go/internal/tool"
	"github.com/errorcache/errorcache-go/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server (stdio, optionally HTTP) with the passive watcher mounted",
	RunE: func(cmd *cobra.Command, args []string) error {
		withHTTP, _ := cmd.Flags().GetBool("http")
		port, _ := cmd.Flags().GetInt("port")
		return runServe(withHTTP, port)
	},
}

func init() {
	serveCmd.Flags().Bool("http", false, "also serve the streamable HTTP transport")
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides ERRORCACHE_HTTP_PORT)")
}

func runServe(withHTTP bool, port int) error {
	cfg := config.Resolve(config.Values{
		APIURL: flagURL,
		APIKey: flagKey,
		Port:   port,
	})

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	catalog := extract.DefaultCatalog()
	if cfg.Watcher.PatternsFile != "" {
		if err := catalog.ExtendFromFile(cfg.Watcher.PatternsFile); err != nil {
			slog.Warn("could not extend pattern catalog", "file", cfg.Watcher.PatternsFile, "error", err)
		}
	}

	client := errorcache.New(cfg.API.BaseURL, cfg.API.Key)

	registry := hook.NewRegistry()
	w := watcher.New(client, extract.New(catalog), watcher.Options{
		AutoSearch: cfg.Watcher.AutoSearch,
		AutoSubmit: cfg.Watcher.AutoSubmit,
	})
	cleanup := w.Mount(registry)
	defer cleanup()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Tool:    tool.New(client),
		Hooks:   registry,
		Version: version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Stdio transport is always on; it is how hosts attach.
	g.Go(func() error {
		stdioSrv := server.NewStdioServer(mcpSrv)
		slog.Info("MCP server started (stdio transport)", "api_url", cfg.API.BaseURL)
		if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil
	})

	if withHTTP {
		router := chi.NewRouter()
		router.Get("/health", func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusOK)
			rw.Write([]byte(`{"status":"ok"}`))
		})
		router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv))

		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
		srv := &http.Server{Addr: addr, Handler: router}

		g.Go(func() error {
			slog.Info("MCP server listening (streamable HTTP)", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
