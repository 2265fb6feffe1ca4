package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "arxplain",
		Short: "Explains research terms using papers from arXiv",
	}

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(explainCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
