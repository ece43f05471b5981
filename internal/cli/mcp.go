package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	nexusmcp "github.com/valter-silva-au/todo-nexus/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the nexus MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the nexus MCP server on stdio",
	Long: `Start the nexus MCP server on stdio transport.

The server keeps one task list for the lifetime of the connection and exposes
it as MCP tools: add_task, toggle_complete, toggle_star, remove_task,
archive_completed, edit_task, list_tasks, get_counts, get_metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newSessionStore()
		if err != nil {
			return err
		}

		srv := nexusmcp.NewServer(store, Collator, MetricsCalc, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
