package databricks

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
		cfg: config.DatabricksConfig{
			ServerHostname: "adb-123.azuredatabricks.net",
			HTTPPath:       "/sql/1.0/warehouses/abc",
			Catalog:        "main",
			Schema:         "bronze",
			Timeout:        5 * time.Second,
		},
		dialect: core.DatabricksDialect{Catalog: "main"},
		log:     log.New(io.Discard),
	}
	if handler != nil {
		s.rest = testRESTClient(t, handler)
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
		"list_clusters",
		"list_jobs",
		"list_warehouses",
		"start_warehouse",
		"get_connection_info",
	}, names)
}

func TestHandleListClusters(t *testing.T) {
	s := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"clusters": []Cluster{{ClusterID: "c-1", ClusterName: "etl", State: "RUNNING"}},
		})
	}))

	result, err := s.handleListClusters(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, float64(1), payload["count"])
}

func TestHandleStartWarehouseRequiresID(t *testing.T) {
	s := testServer(t, nil)

	result, err := s.handleStartWarehouse(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "warehouse_id is required")
}

func TestHandleStartWarehouse(t *testing.T) {
	s := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Warehouse{ID: "wh-1", Name: "main", State: WarehouseRunning})
	}))

	result, err := s.handleStartWarehouse(context.Background(),
		toolRequest(map[string]interface{}{"warehouse_id": "wh-1"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, "wh-1", payload["warehouse_id"])
	assert.Equal(t, WarehouseRunning, payload["state"])
}

func TestHandleGetConnectionInfo(t *testing.T) {
	s := testServer(t, nil)

	result, err := s.handleGetConnectionInfo(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &info))
	assert.Equal(t, "databricks", info["vendor"])
	assert.Equal(t, "adb-123.azuredatabricks.net", info["hostname"])
	assert.Equal(t, "main", info["catalog"])
}
