package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/doITmagic/thinktest-analyzer/internal/tools"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the
analyze_plugin, analyze_elementor_widget and scan_plugin_directory tools.
Logs go to stderr or the configured log file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			scanner, err := a.scanner()
			if err != nil {
				return err
			}

			server := mcp.NewServer(&mcp.Implementation{
				Name:    a.cfg.Server.Name,
				Version: a.cfg.Server.Version,
			}, nil)
			tools.RegisterAll(server, analyzer, scanner, a.logger)

			a.logger.WithField("server", a.cfg.Server.Name).Info("MCP server started (stdio mode)")

			// Use a context that cancels on OS signals for graceful shutdown.
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("server terminated: %w", err)
			}
			return nil
		},
	}
}
