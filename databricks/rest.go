package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"warehouse-mcp/core"
)

// Warehouse states reported by the SQL warehouses API.
const (
	WarehouseRunning  = "RUNNING"
	WarehouseStarting = "STARTING"
	WarehouseStopped  = "STOPPED"
	WarehouseDeleted  = "DELETED"
)

const warehousePollInterval = 5 * time.Second

// RESTClient talks to the Databricks workspace REST API (clusters, jobs,
// SQL warehouses).
type RESTClient struct {
	baseURL      string
	token        string
	client       *http.Client
	pollInterval time.Duration
}

func NewRESTClient(hostname, token string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:      "https://" + hostname,
		token:        token,
		client:       &http.Client{Timeout: timeout},
		pollInterval: warehousePollInterval,
	}
}

type Cluster struct {
	ClusterID    string `json:"cluster_id"`
	ClusterName  string `json:"cluster_name"`
	State        string `json:"state"`
	SparkVersion string `json:"spark_version"`
	NodeTypeID   string `json:"node_type_id"`
	NumWorkers   int    `json:"num_workers"`
}

type Job struct {
	JobID    int64 `json:"job_id"`
	Settings struct {
		Name string `json:"name"`
	} `json:"settings"`
	CreatedTime int64 `json:"created_time"`
}

type Warehouse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	ClusterSize string `json:"cluster_size"`
	AutoStop    int    `json:"auto_stop_mins"`
}

func (c *RESTClient) ListClusters(ctx context.Context) ([]Cluster, error) {
	var out struct {
		Clusters []Cluster `json:"clusters"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/2.0/clusters/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Clusters, nil
}

func (c *RESTClient) ListJobs(ctx context.Context) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/2.1/jobs/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

func (c *RESTClient) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	var out struct {
		Warehouses []Warehouse `json:"warehouses"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/2.0/sql/warehouses", nil, &out); err != nil {
		return nil, err
	}
	return out.Warehouses, nil
}

func (c *RESTClient) GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	var out Warehouse
	if err := c.do(ctx, http.MethodGet, "/api/2.0/sql/warehouses/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) StartWarehouse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/2.0/sql/warehouses/"+id+"/start", struct{}{}, nil)
}

// WaitForWarehouse polls until the warehouse reports RUNNING. A stopped
// warehouse is started first (the cold-start path).
func (c *RESTClient) WaitForWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	wh, err := c.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if wh.State == WarehouseRunning {
		return wh, nil
	}
	if wh.State == WarehouseStopped {
		if err := c.StartWarehouse(ctx, id); err != nil {
			return nil, err
		}
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, core.NewConnError(core.KindTimeout,
				fmt.Errorf("warehouse %s did not reach RUNNING: %w", id, ctx.Err()))
		case <-ticker.C:
			wh, err = c.GetWarehouse(ctx, id)
			if err != nil {
				return nil, err
			}
			switch wh.State {
			case WarehouseRunning:
				return wh, nil
			case WarehouseDeleted:
				return nil, core.NewConnError(core.KindWarehouseUnavailable,
					fmt.Errorf("warehouse %s was deleted", id))
			}
		}
	}
}

func (c *RESTClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return core.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyStatus(resp.StatusCode, path, payload)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func classifyStatus(status int, path string, payload []byte) *core.ConnError {
	err := fmt.Errorf("%s returned HTTP %d: %s", path, status, payload)
	switch status {
	case http.StatusUnauthorized:
		return core.NewConnError(core.KindAuthFailure, err)
	case http.StatusForbidden:
		return core.NewConnError(core.KindPermissionDenied, err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return core.NewConnError(core.KindTimeout, err)
	case http.StatusServiceUnavailable:
		return core.NewConnError(core.KindWarehouseUnavailable, err)
	default:
		return core.NewConnError(core.KindOther, err)
	}
}
