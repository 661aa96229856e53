package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	zodomcp "zodo/app/mcp"
	"zodo/app/server"
	"zodo/app/tui"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Serve the HTTP API",
	Long:        `Serve the task tree over HTTP until interrupted. Removals are not confirmed.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNonInteractive: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		addr := Cfg.HTTP.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := server.Run(ctx, addr, Service, Logger); err != nil {
			return fmt.Errorf("running HTTP server: %w", err)
		}
		return nil
	},
}

var tuiCmd = &cobra.Command{
	Use:         "tui",
	Short:       "Browse and edit the tree interactively",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNonInteractive: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		return tui.Run(commandContext(cmd), Service)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the zodo MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the zodo MCP server on stdio",
	Long: `Start the zodo MCP server on stdio transport.

The server exposes the task tree as MCP tools: get_tree, add_task,
rename_task, set_done, set_show, move_task, remove_task, export_tree.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNonInteractive: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}

		srv := zodomcp.NewServer(Service, appVersion)

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default http.addr)")

	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(serveCmd, tuiCmd, mcpCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
