package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arxplain/internal/agent"
	"arxplain/internal/config"
	"arxplain/internal/gateway"
	"arxplain/internal/llm"
	"arxplain/internal/logger"
	"arxplain/internal/session"
)

var explainCmd = &cobra.Command{
	Use:   "explain <term>",
	Short: "Explain a research term on the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := logger.Init(cfg.Log.File); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		if cfg.Anthropic.APIKey == "" {
			return fmt.Errorf("no Anthropic API key configured")
		}

		manager := session.NewManager(cfg.MCP.Command, time.Duration(cfg.MCP.StartupTimeout)*time.Second)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("starting tool provider: %w", err)
		}
		defer func() {
			if err := manager.Stop(); err != nil {
				slog.Error("tool provider shutdown", "error", err)
			}
		}()

		tools, err := manager.ListTools(ctx)
		if err != nil {
			return fmt.Errorf("listing tools: %w", err)
		}

		term := strings.Join(args, " ")
		model := llm.NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		messages := []agent.Message{{
			Role:    agent.RoleUser,
			Content: []agent.ContentBlock{agent.TextBlock{Text: gateway.BuildPrompt(term)}},
		}}

		loop := agent.NewLoop(model, manager)
		return loop.Run(ctx, messages, tools, func(ev agent.Event) {
			switch ev := ev.(type) {
			case agent.TextEvent:
				fmt.Print(ev.Content)
			case agent.ToolUseEvent:
				fmt.Fprintf(os.Stderr, "-> %s %v\n", ev.ToolName, ev.ToolInput)
			case agent.ErrorEvent:
				fmt.Fprintf(os.Stderr, "error: %s\n", ev.Content)
			case agent.DoneEvent:
				fmt.Println()
			}
		})
	},
}
