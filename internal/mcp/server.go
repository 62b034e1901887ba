// ABOUTME: MCP server initialization and configuration
// ABOUTME: Exposes the position repository and raw store access to AI agents

package mcp

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harper/location/internal/logging"
	"github.com/harper/location/internal/position"
)

// Server wraps the MCP server with the position repository.
type Server struct {
	mcp     *mcp.Server
	repo    *position.Repository
	backend string
	logger  *log.Logger
}

// NewServer creates MCP server with all capabilities. backend names the
// configured store for the status resource.
func NewServer(repo *position.Repository, backend string, logger *log.Logger) (*Server, error) {
	if repo == nil {
		return nil, fmt.Errorf("position repository is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "location",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		repo:    repo,
		backend: backend,
		logger:  logging.OrDiscard(logger).WithPrefix("mcp"),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving on stdio", "backend", s.backend)
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
