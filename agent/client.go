// Package agent wires an Azure OpenAI chat loop to an MCP server spawned
// as a subprocess.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// CallTimeout bounds a single tool call against the child server.
const CallTimeout = 120 * time.Second

// MCPClient owns the child MCP server process and the stdio session to it.
type MCPClient struct {
	client *client.Client
	tools  []mcp.Tool
}

// NewMCPClient spawns command with args, initializes the MCP session and
// lists the server's tools. The child inherits the parent environment, so
// vendor credentials pass through.
func NewMCPClient(ctx context.Context, command string, args ...string) (*MCPClient, error) {
	c, err := client.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("spawning MCP server: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "warehouse-mcp-agent",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initRequest); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing MCP session: %w", err)
	}

	toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("listing tools: %w", err)
	}

	return &MCPClient{client: c, tools: toolsResult.Tools}, nil
}

// Tools returns the descriptors advertised by the child server.
func (m *MCPClient) Tools() []mcp.Tool {
	return m.tools
}

// CallTool invokes one tool and flattens the text content of the result.
func (m *MCPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := m.client.CallTool(ctx, request)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", name, err)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if result.IsError {
		return text, fmt.Errorf("tool %s failed: %s", name, text)
	}
	return text, nil
}

// Close tears down the session and the child process.
func (m *MCPClient) Close() error {
	return m.client.Close()
}
