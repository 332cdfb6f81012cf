package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/agent"
	"github.com/voxpilot/voxpilot/internal/version"
)

// Server exposes the agent over the Model Context Protocol.
type Server struct {
	router *agent.Router
	mcp    *mcpserver.MCPServer
	log    *zap.Logger
}

// New creates an MCP server wrapping the given router.
func New(router *agent.Router, log *zap.Logger) *Server {
	s := &Server{
		router: router,
		log:    log.Named("mcp"),
	}
	s.mcp = mcpserver.NewMCPServer("voxpilot", version.Version)
	s.registerTools()
	return s
}

// Serve starts the server on the chosen transport and blocks.
func (s *Server) Serve(transport string, port int) error {
	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("command",
			mcp.WithDescription("Run a natural-language desktop command. Classifies the intent, resolves the target element, and executes it. Deferred content requests return waiting_for_user and place on the next click."),
			mcp.WithString("text", mcp.Description("The command, e.g. 'click the send button'")),
		),
		s.handleCommand,
	)

	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Report the agent's current mode (ready, processing, waiting_for_user) and any pending deferred action"),
		),
		s.handleStatus,
	)

	s.mcp.AddTool(
		mcp.NewTool("cancel",
			mcp.WithDescription("Cancel a pending deferred action that is waiting for its placement click"),
		),
		s.handleCancel,
	)
}

func (s *Server) handleCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text, _ := params["text"].(string)
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	res := s.router.Route(ctx, text)
	b, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Status == agent.StatusFailed || res.Status == agent.StatusBusy {
		return mcp.NewToolResultError(string(b)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(s.router.Status())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleCancel(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.router.CancelDeferred() {
		return mcp.NewToolResultText("deferred action cancelled"), nil
	}
	return mcp.NewToolResultText("nothing to cancel"), nil
}
