package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"warehouse-mcp/config"
	"warehouse-mcp/core"
)

const (
	apiBase    = "https://api.fabric.microsoft.com/v1"
	tokenScope = "https://api.fabric.microsoft.com/.default"
)

// Client talks to the Microsoft Fabric REST API using AAD
// client-credentials tokens. Token acquisition and refresh are handled by
// the oauth2 transport.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(ctx context.Context, cfg config.FabricConfig) *Client {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{tokenScope},
	}
	httpClient := creds.Client(ctx)
	httpClient.Timeout = cfg.Timeout
	return &Client{baseURL: apiBase, client: httpClient}
}

type Workspace struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	CapacityID  string `json:"capacityId,omitempty"`
}

type Item struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	WorkspaceID string `json:"workspaceId"`
	Description string `json:"description,omitempty"`
}

type FabricWarehouse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Properties  struct {
		ConnectionString string    `json:"connectionString,omitempty"`
		CreatedDate      time.Time `json:"createdDate,omitempty"`
	} `json:"properties"`
}

func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out struct {
		Value []Workspace `json:"value"`
	}
	if err := c.get(ctx, "/workspaces", &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *Client) ListItems(ctx context.Context, workspaceID string) ([]Item, error) {
	var out struct {
		Value []Item `json:"value"`
	}
	if err := c.get(ctx, "/workspaces/"+workspaceID+"/items", &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *Client) ListWarehouses(ctx context.Context, workspaceID string) ([]FabricWarehouse, error) {
	var out struct {
		Value []FabricWarehouse `json:"value"`
	}
	if err := c.get(ctx, "/workspaces/"+workspaceID+"/warehouses", &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Token acquisition failures surface here as URL errors.
		return core.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("%s returned HTTP %d: %s", path, resp.StatusCode, payload)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return core.NewConnError(core.KindAuthFailure, err)
		case http.StatusForbidden:
			return core.NewConnError(core.KindPermissionDenied, err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return core.NewConnError(core.KindTimeout, err)
		default:
			return core.NewConnError(core.KindOther, err)
		}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
