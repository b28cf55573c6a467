package fabric

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-mcp/config"
	"warehouse-mcp/core"
)

func testServer(t *testing.T, handler http.Handler) *Server {
	t.Helper()
	s := &Server{
		cfg: config.FabricConfig{
			TenantID:    "11111111-2222-3333-4444-555555555555",
			WorkspaceID: "ws-1",
			Timeout:     5 * time.Second,
		},
		log: log.New(io.Discard),
	}
	if handler != nil {
		s.rest = testClient(t, handler)
	}
	return s
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolRegistry(t *testing.T) {
	s := testServer(t, nil)
	pairs := s.tools()

	names := make([]string, len(pairs))
	for i, p := range pairs {
		require.NotNil(t, p.Handler, p.Tool.Name)
		require.NotEmpty(t, p.Tool.Description, p.Tool.Name)
		names[i] = p.Tool.Name
	}
	assert.Equal(t, []string{
		"execute_query",
		"list_tables",
		"describe_table",
		"list_workspaces",
		"list_items",
		"list_fabric_warehouses",
		"get_connection_info",
	}, names)
}

func TestHandleExecuteQueryWithoutEndpoint(t *testing.T) {
	s := testServer(t, nil)

	result, err := s.handleExecuteQuery(context.Background(),
		toolRequest(map[string]interface{}{"query": "SELECT 1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), core.ErrNoConnection.Error())
}

func TestHandleListItemsDefaultsToConfiguredWorkspace(t *testing.T) {
	s := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspaces/ws-1/items", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []Item{{ID: "it-1", DisplayName: "Sales", Type: "Warehouse"}},
		})
	}))

	result, err := s.handleListItems(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, "ws-1", payload["workspace_id"])
	assert.Equal(t, float64(1), payload["count"])
}

func TestHandleListItemsWithoutWorkspace(t *testing.T) {
	s := testServer(t, nil)
	s.cfg.WorkspaceID = ""

	result, err := s.handleListItems(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "workspace_id is required")
}

func TestHandleGetConnectionInfo(t *testing.T) {
	s := testServer(t, nil)

	result, err := s.handleGetConnectionInfo(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &info))
	assert.Equal(t, "fabric", info["vendor"])
	assert.Equal(t, "ws-1", info["workspace_id"])
	assert.Equal(t, false, info["sql_connected"])
}
