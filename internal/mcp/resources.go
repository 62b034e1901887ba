// ABOUTME: MCP resource definitions
// ABOUTME: Provides a read-only view of the store connection for AI agents

package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harper/location/internal/position"
)

const statusURI = "location://status"

// StatusOutput describes the store behind the server.
type StatusOutput struct {
	Backend     string `json:"backend"`
	Connected   bool   `json:"connected"`
	Bucket      string `json:"bucket"`
	Org         string `json:"org"`
	Measurement string `json:"measurement"`
}

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        statusURI,
		Description: "Configured store backend and connection state",
		URI:         statusURI,
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

func (s *Server) status() StatusOutput {
	return StatusOutput{
		Backend:     s.backend,
		Connected:   s.repo.Store().Connected(),
		Bucket:      s.repo.Bucket(),
		Org:         s.repo.Org(),
		Measurement: position.Measurement,
	}
}

func (s *Server) handleStatusResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	jsonBytes, _ := json.MarshalIndent(s.status(), "", "  ") //nolint:errchkjson // output is always serializable

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      statusURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		},
	}, nil
}
