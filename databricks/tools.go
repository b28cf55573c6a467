package databricks

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
		{Tool: s.toolListClusters(), Handler: s.handleListClusters},
		{Tool: s.toolListJobs(), Handler: s.handleListJobs},
		{Tool: s.toolListWarehouses(), Handler: s.handleListWarehouses},
		{Tool: s.toolStartWarehouse(), Handler: s.handleStartWarehouse},
		{Tool: s.toolGetConnectionInfo(), Handler: s.handleGetConnectionInfo},
	}
}

func (s *Server) toolExecuteQuery() mcp.Tool {
	return mcp.Tool{
		Name:        "execute_query",
		Description: "Execute a SQL query on the Databricks SQL warehouse. SELECT-style queries return rows; other statements return the affected row count.",
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
	return core.HandleExecuteQuery(ctx, s.db, false, request)
}

func (s *Server) toolListTables() mcp.Tool {
	return mcp.Tool{
		Name:        "list_tables",
		Description: "List tables in a schema of the configured catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"schema": map[string]interface{}{
					"type":        "string",
					"description": "Schema name (default: the configured schema)",
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
					"description": "Schema name (default: the configured schema)",
				},
			},
			Required: []string{"table_name"},
		},
	}
}

func (s *Server) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return core.HandleDescribeTable(ctx, s.db, s.dialect, request)
}

func (s *Server) toolListClusters() mcp.Tool {
	return mcp.Tool{
		Name:        "list_clusters",
		Description: "List workspace clusters with their state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleListClusters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clusters, err := s.rest.ListClusters(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return restJSON(map[string]interface{}{"clusters": clusters, "count": len(clusters)})
}

func (s *Server) toolListJobs() mcp.Tool {
	return mcp.Tool{
		Name:        "list_jobs",
		Description: "List workspace jobs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := s.rest.ListJobs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return restJSON(map[string]interface{}{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) toolListWarehouses() mcp.Tool {
	return mcp.Tool{
		Name:        "list_warehouses",
		Description: "List SQL warehouses with their state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleListWarehouses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	warehouses, err := s.rest.ListWarehouses(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return restJSON(map[string]interface{}{"warehouses": warehouses, "count": len(warehouses)})
}

func (s *Server) toolStartWarehouse() mcp.Tool {
	return mcp.Tool{
		Name:        "start_warehouse",
		Description: "Start a SQL warehouse and wait until it is running. Handles the cold-start case after the warehouse auto-suspended.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"warehouse_id": map[string]interface{}{
					"type":        "string",
					"description": "Warehouse ID",
				},
			},
			Required: []string{"warehouse_id"},
		},
	}
}

func (s *Server) handleStartWarehouse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := core.GetArgs(request.Params.Arguments)
	if !ok {
		return mcp.NewToolResultError(core.ErrInvalidArguments.Error()), nil
	}
	id, ok := core.GetStringArg(args, "warehouse_id")
	if !ok || id == "" {
		return mcp.NewToolResultError("warehouse_id is required"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.log.Info("starting warehouse", "warehouse_id", id)
	wh, err := s.rest.WaitForWarehouse(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return restJSON(map[string]interface{}{
		"warehouse_id": wh.ID,
		"name":         wh.Name,
		"state":        wh.State,
	})
}

func (s *Server) toolGetConnectionInfo() mcp.Tool {
	return mcp.Tool{
		Name:        "get_connection_info",
		Description: "Return the active connection target",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func (s *Server) handleGetConnectionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return restJSON(map[string]interface{}{
		"vendor":    "databricks",
		"hostname":  s.cfg.ServerHostname,
		"http_path": s.cfg.HTTPPath,
		"catalog":   s.cfg.Catalog,
		"schema":    s.cfg.Schema,
	})
}

func restJSON(payload map[string]interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(core.ErrSerializingJSON.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
