package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxpilot/voxpilot/internal/observability"
	"github.com/voxpilot/voxpilot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the agent as tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes the agent's
command, status, and cancel operations as tools, so MCP clients can drive the
desktop without shell overhead.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  voxpilot serve
  voxpilot serve --transport streamable-http --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	router, err := buildAgent()
	if err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	srv := server.New(router, observability.Logger())
	return srv.Serve(transport, port)
}
