package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"arxplain/internal/arxiv"
	"arxplain/internal/logger"
	"arxplain/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the paper-search tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(""); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		srv := mcpserver.New(arxiv.NewClient())
		if err := server.ServeStdio(srv); err != nil {
			return fmt.Errorf("serving mcp: %w", err)
		}
		return nil
	},
}
