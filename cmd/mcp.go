package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/barback/internal/checkpoint"
	mcpserver "github.com/ziadkadry99/barback/internal/mcp"
	"github.com/ziadkadry99/barback/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing drink ranking, catalog lookup and bartender conversation tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := context.Background()

		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		engine, err := a.engine()
		if err != nil {
			return err
		}
		store, err := checkpoint.New(cfg.Checkpoint, a.db)
		if err != nil {
			return fmt.Errorf("creating checkpoint store: %w", err)
		}
		defer store.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "barback MCP server started on stdio (drinks=%d)\n", a.index.Count())
		if a.index.Count() == 0 {
			fmt.Fprintln(os.Stderr, "Warning: the drink index is empty. Run `barback catalog import <file>` first.")
		}

		srv := mcpserver.NewServer(a.matcher, a.catalog, session.NewService(engine, store, logger))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
