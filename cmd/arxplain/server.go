package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arxplain/internal/config"
	"arxplain/internal/db"
	"arxplain/internal/gateway"
	"arxplain/internal/history"
	"arxplain/internal/llm"
	"arxplain/internal/logger"
	"arxplain/internal/session"
	"arxplain/internal/trace"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the explanation API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serverAddr != "" {
			cfg.Server.Addr = serverAddr
		}

		if err := logger.Init(cfg.Log.File); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		shutdownTrace, err := trace.Init(ctx, trace.Config{
			Endpoint: cfg.Trace.Endpoint,
			URLPath:  cfg.Trace.URLPath,
			APIKey:   cfg.Trace.APIKey,
		})
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer shutdownTrace(context.Background())

		database, err := db.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		store := history.NewStore(database)

		if cfg.Anthropic.APIKey == "" {
			slog.Warn("no Anthropic API key configured, explain requests will be rejected")
		}
		model := llm.NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

		manager := session.NewManager(cfg.MCP.Command, time.Duration(cfg.MCP.StartupTimeout)*time.Second)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("starting tool provider: %w", err)
		}
		defer func() {
			if err := manager.Stop(); err != nil {
				slog.Error("tool provider shutdown", "error", err)
			}
		}()

		srv := gateway.NewServer(model, manager, store,
			gateway.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			gateway.WithModelReady(cfg.Anthropic.APIKey != ""),
		)
		slog.Info("starting server", "addr", cfg.Server.Addr)
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serverCmd.Flags().StringVarP(&serverAddr, "addr", "a", "", "override listen address")
}
