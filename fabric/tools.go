package fabric

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
		{Tool: s.toolListWorkspaces(), Handler: s.handleListWorkspaces},
		{Tool: s.toolListItems(), Handler: s.handleListItems},
		{Tool: s.toolListFabricWarehouses(), Handler: s.handleListFabricWarehouses},
		{Tool: s.toolGetConnectionInfo(), Handler: s.handleGetConnectionInfo},
	}
}

func (s *Server) toolExecuteQuery() mcp.Tool {
	return mcp.Tool{
		Name:        "execute_query",
		Description: "Execute a SQL query against the Fabric warehouse SQL endpoint. SELECT-style queries return rows; other statements return the affected row count.",
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
	if s.db == nil {
		return mcp.NewToolResultError(core.ErrNoConnection.Error()), nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return core.HandleExecuteQuery(ctx, s.db, false, request)
}

func (s *Server) toolListTables() mcp.Tool {
	return mcp.Tool{
		Name:        "list_tables",
		Description: "List tables in the warehouse, optionally restricted to a schema",
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

func (s *Server) toolListWorkspaces() mcp.Tool {
	return mcp.Tool{
		Name:        "list_workspaces",
		Description: "List Fabric workspaces visible to the service principal",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleListWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaces, err := s.rest.ListWorkspaces(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return fabricJSON(map[string]interface{}{"workspaces": workspaces, "count": len(workspaces)})
}

func (s *Server) toolListItems() mcp.Tool {
	return mcp.Tool{
		Name:        "list_items",
		Description: "List items (lakehouses, warehouses, reports, ...) in a workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace_id": map[string]interface{}{
					"type":        "string",
					"description": "Workspace ID (default: the configured workspace)",
				},
			},
		},
	}
}

func (s *Server) handleListItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID, result := s.workspaceArg(request)
	if result != nil {
		return result, nil
	}
	items, err := s.rest.ListItems(ctx, workspaceID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return fabricJSON(map[string]interface{}{"workspace_id": workspaceID, "items": items, "count": len(items)})
}

func (s *Server) toolListFabricWarehouses() mcp.Tool {
	return mcp.Tool{
		Name:        "list_fabric_warehouses",
		Description: "List warehouses in a workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace_id": map[string]interface{}{
					"type":        "string",
					"description": "Workspace ID (default: the configured workspace)",
				},
			},
		},
	}
}

func (s *Server) handleListFabricWarehouses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceID, result := s.workspaceArg(request)
	if result != nil {
		return result, nil
	}
	warehouses, err := s.rest.ListWarehouses(ctx, workspaceID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return fabricJSON(map[string]interface{}{"workspace_id": workspaceID, "warehouses": warehouses, "count": len(warehouses)})
}

func (s *Server) toolGetConnectionInfo() mcp.Tool {
	return mcp.Tool{
		Name:        "get_connection_info",
		Description: "Return the configured Fabric targets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleGetConnectionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return fabricJSON(map[string]interface{}{
		"vendor":        "fabric",
		"tenant_id":     s.cfg.TenantID,
		"workspace_id":  s.cfg.WorkspaceID,
		"sql_endpoint":  s.cfg.SQLEndpoint,
		"database":      s.cfg.Database,
		"sql_connected": s.db != nil,
	})
}

func (s *Server) workspaceArg(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	args, ok := core.GetArgs(request.Params.Arguments)
	if !ok {
		return "", mcp.NewToolResultError(core.ErrInvalidArguments.Error())
	}
	workspaceID, _ := core.GetStringArg(args, "workspace_id")
	if workspaceID == "" {
		workspaceID = s.cfg.WorkspaceID
	}
	if workspaceID == "" {
		return "", mcp.NewToolResultError("workspace_id is required when no workspace is configured")
	}
	return workspaceID, nil
}

func fabricJSON(payload map[string]interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(core.ErrSerializingJSON.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
