// Package mcp exposes the routing engine as an MCP tool server so agent
// hosts can ask questions over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/ragalytics/orchestrator"
	"github.com/sweetpotato0/ragalytics/pkg/logging"
)

// Asker is the engine capability the server needs.
type Asker interface {
	Ask(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
}

// NewServer builds an MCP server exposing the ask tool.
func NewServer(engine Asker, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ragalytics",
		Version: version,
		Title:   "ragalytics query engine",
	}, nil)

	addAskTool(server, engine)
	addPersonaLister(server)

	return server
}

func addAskTool(server *mcp.Server, engine Asker) {
	logger := logging.WithComponent("mcp")

	type args struct {
		Question string `json:"question" jsonschema:"Question about product data or game documentation"`
		Persona  string `json:"persona,omitempty" jsonschema:"Answer voice: product_owner (default) or marketing"`
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question by routing it to the analytics, documentation, or general pipeline",
	}, func(ctx context.Context, req *mcp.CallToolRequest, a args) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(a.Question) == "" {
			return nil, nil, fmt.Errorf("question is required")
		}

		resp, err := engine.Ask(ctx, orchestrator.Request{
			Question: a.Question,
			Persona:  a.Persona,
		})
		if err != nil {
			logger.Warn("ask tool failed", "error", err)
			return nil, nil, err
		}

		raw, err := json.Marshal(resp)
		if err != nil {
			return nil, nil, fmt.Errorf("encode response: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(raw)},
			},
		}, nil, nil
	})
}

func addPersonaLister(server *mcp.Server) {
	type args struct{}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_personas",
		Description: "List the answer voices the ask tool accepts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ args) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "product_owner (default), marketing"},
			},
		}, nil, nil
	})
}

// Serve runs the server over stdio until the context is cancelled.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
