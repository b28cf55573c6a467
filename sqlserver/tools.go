package sqlserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"warehouse-mcp/core"
)

func (s *Server) tools() []core.ToolPair {
	return []core.ToolPair{
		{Tool: s.toolExecuteQuery(), Handler: s.handleExecuteQuery},
		{Tool: s.toolListTables(), Handler: s.handleListTables},
		{Tool: s.toolDescribeTable(), Handler: s.handleDescribeTable},
		{Tool: s.toolTableRowCount(), Handler: s.handleTableRowCount},
		{Tool: s.toolGetConnectionInfo(), Handler: s.handleGetConnectionInfo},
	}
}

func (s *Server) toolExecuteQuery() mcp.Tool {
	return mcp.Tool{
		Name:        "execute_query",
		Description: "Execute a SQL query against SQL Server. SELECT-style queries return rows; other statements return the affected row count.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL statement to execute",
				},
				"max_rows": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of rows to return (default: 100, max: 10000)",
				},
				"read_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Reject statements that modify data or structure for this call",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (s *Server) handleExecuteQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return core.HandleExecuteQuery(ctx, s.db, s.cfg.ReadOnly, request)
}

func (s *Server) toolListTables() mcp.Tool {
	return mcp.Tool{
		Name:        "list_tables",
		Description: "List base tables, optionally restricted to a schema",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema name (optional)",
				},
			},
		},
	}
}

func (s *Server) handleListTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return core.HandleListTables(ctx, s.db, s.dialect, request)
}

func (s *Server) toolDescribeTable() mcp.Tool {
	return mcp.Tool{
		Name:        "describe_table",
		Description: "Return column metadata for a table (name, type, nullability, default)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table_name": map[string]interface{}{
					"type":        "string",
					"description": "Table name",
				},
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema name (default: dbo)",
				},
			},
			Required: []string{"table_name"},
		},
	}
}

func (s *Server) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return core.HandleDescribeTable(ctx, s.db, s.dialect, request)
}

func (s *Server) toolTableRowCount() mcp.Tool {
	return mcp.Tool{
		Name:        "table_row_count",
		Description: "Count the rows in a table",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table_name": map[string]interface{}{
					"type":        "string",
					"description": "Table name",
				},
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema name (default: dbo)",
				},
			},
			Required: []string{"table_name"},
		},
	}
}

func (s *Server) handleTableRowCount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return core.HandleRowCount(ctx, s.db, s.dialect, request)
}

func (s *Server) toolGetConnectionInfo() mcp.Tool {
	return mcp.Tool{
		Name:        "get_connection_info",
		Description: "Return the active connection target and server version",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleGetConnectionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, core.MetadataQueryTimeout)
	defer cancel()

	var version string
	if err := s.db.QueryRowContext(ctx, s.dialect.VersionQuery()).Scan(&version); err != nil {
		version = "unknown"
	}

	info := map[string]interface{}{
		"vendor":    "sqlserver",
		"host":      s.cfg.Host,
		"port":      s.cfg.Port,
		"database":  s.cfg.Database,
		"read_only": s.cfg.ReadOnly,
		"version":   version,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(core.ErrSerializingJSON.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
