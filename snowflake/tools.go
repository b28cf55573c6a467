package snowflake

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"warehouse-mcp/core"
)

func (s *Server) tools() []core.ToolPair {
	return []core.ToolPair{
		{Tool: s.toolExecuteQuery(), Handler: s.handleExecuteQuery},
		{Tool: s.toolListTables(), Handler: s.handleListTables},
		{Tool: s.toolDescribeTable(), Handler: s.handleDescribeTable},
		{Tool: s.toolListDatabases(), Handler: s.handleListDatabases},
		{Tool: s.toolListSchemas(), Handler: s.handleListSchemas},
		{Tool: s.toolListWarehouses(), Handler: s.handleListWarehouses},
		{Tool: s.toolGetConnectionInfo(), Handler: s.handleGetConnectionInfo},
	}
}

func (s *Server) toolExecuteQuery() mcp.Tool {
	return mcp.Tool{
		Name:        "execute_query",
		Description: "Execute a SQL query on Snowflake. SELECT-style queries return rows; other statements return the affected row count.",
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
	db, err := s.conn(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return core.HandleExecuteQuery(ctx, db, false, request)
}

func (s *Server) toolListTables() mcp.Tool {
	return mcp.Tool{
		Name:        "list_tables",
		Description: "List tables in the current database, optionally restricted to a schema",
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
	db, err := s.conn(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return core.HandleListTables(ctx, db, s.dialect, request)
}

func (s *Server) toolDescribeTable() mcp.Tool {
	return mcp.Tool{
		Name:        "describe_table",
		Description: "Return column metadata for a table",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table_name": map[string]interface{}{
					"type":        "string",
					"description": "Table name",
				},
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema name (default: PUBLIC)",
				},
			},
			Required: []string{"table_name"},
		},
	}
}

func (s *Server) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return core.HandleDescribeTable(ctx, db, s.dialect, request)
}

func (s *Server) toolListDatabases() mcp.Tool {
	return mcp.Tool{
		Name:        "list_databases",
		Description: "List databases visible to the current role",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleListDatabases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.showQuery(ctx, "SHOW TERSE DATABASES")
}

func (s *Server) toolListSchemas() mcp.Tool {
	return mcp.Tool{
		Name:        "list_schemas",
		Description: "List schemas in a database (default: the configured database)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"database": map[string]interface{}{
					"type":        "string",
					"description": "Database name (optional)",
				},
			},
		},
	}
}

func (s *Server) handleListSchemas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := core.GetArgs(request.Params.Arguments)
	if !ok {
		return mcp.NewToolResultError(core.ErrInvalidArguments.Error()), nil
	}
	database, err := core.ValidIdentifierArg(args, "database", s.cfg.Database)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.showQuery(ctx, fmt.Sprintf("SHOW TERSE SCHEMAS IN DATABASE %s", database))
}

func (s *Server) toolListWarehouses() mcp.Tool {
	return mcp.Tool{
		Name:        "list_warehouses",
		Description: "List warehouses with their size and running state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleListWarehouses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.showQuery(ctx, "SHOW WAREHOUSES")
}

// showQuery runs a SHOW command and shapes it like any other read result.
func (s *Server) showQuery(ctx context.Context, query string) (*mcp.CallToolResult, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctx, cancel := context.WithTimeout(ctx, core.MetadataQueryTimeout)
	defer cancel()

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(core.Classify(err).Error()), nil
	}
	defer rows.Close()

	result, err := core.CollectRows(rows, core.HardMaxRows, core.QueryTypeRead)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := result.JSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) toolGetConnectionInfo() mcp.Tool {
	return mcp.Tool{
		Name:        "get_connection_info",
		Description: "Return the active connection target and Snowflake version",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleGetConnectionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctx, cancel := context.WithTimeout(ctx, core.MetadataQueryTimeout)
	defer cancel()

	var version string
	if err := db.QueryRowContext(ctx, s.dialect.VersionQuery()).Scan(&version); err != nil {
		version = "unknown"
	}

	info := map[string]interface{}{
		"vendor":    "snowflake",
		"account":   s.cfg.Account,
		"database":  s.cfg.Database,
		"schema":    s.cfg.Schema,
		"warehouse": s.cfg.Warehouse,
		"role":      s.cfg.Role,
		"version":   version,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(core.ErrSerializingJSON.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
