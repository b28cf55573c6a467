package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is searched when --config is not given.
const DefaultPath = "config/config.yaml"

var ErrMissingField = errors.New("missing required field")

// Config is the full configuration surface. Each server validates only its
// own section, so one file can carry every vendor.
type Config struct {
	LogLevel    string
	Databricks  DatabricksConfig
	Snowflake   SnowflakeConfig
	SQLServer   SQLServerConfig
	Fabric      FabricConfig
	AzureOpenAI AzureOpenAIConfig
	Migration   MigrationConfig
}

type DatabricksConfig struct {
	ServerHostname string
	HTTPPath       string
	AccessToken    string
	Catalog        string
	Schema         string
	Timeout        time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Timeout   time.Duration
}

type SQLServerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Encrypt  string
	ReadOnly bool
	Timeout  time.Duration
}

type FabricConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	WorkspaceID  string
	SQLEndpoint  string
	Database     string
	Timeout      time.Duration
}

type AzureOpenAIConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

type MigrationConfig struct {
	SourceSchema string
	TargetSchema string
	BatchSize    int
	Workers      int
	Tables       []string
}

// envBindings maps config keys to the vendor environment variables that
// override them.
var envBindings = map[string]string{
	"log_level": "WAREHOUSE_MCP_LOG_LEVEL",

	"databricks.server_hostname": "DATABRICKS_SERVER_HOSTNAME",
	"databricks.http_path":       "DATABRICKS_HTTP_PATH",
	"databricks.access_token":    "DATABRICKS_ACCESS_TOKEN",
	"databricks.catalog":         "DATABRICKS_CATALOG",
	"databricks.schema":          "DATABRICKS_SCHEMA",
	"databricks.timeout_seconds": "DATABRICKS_TIMEOUT",
	"databricks.retry_attempts":  "DATABRICKS_RETRY_ATTEMPTS",
	"databricks.retry_delay":     "DATABRICKS_RETRY_DELAY",

	"snowflake.account":         "SNOWFLAKE_ACCOUNT",
	"snowflake.user":            "SNOWFLAKE_USER",
	"snowflake.password":        "SNOWFLAKE_PASSWORD",
	"snowflake.database":        "SNOWFLAKE_DATABASE",
	"snowflake.schema":          "SNOWFLAKE_SCHEMA",
	"snowflake.warehouse":       "SNOWFLAKE_WAREHOUSE",
	"snowflake.role":            "SNOWFLAKE_ROLE",
	"snowflake.timeout_seconds": "SNOWFLAKE_TIMEOUT",

	"sqlserver.host":            "SQLSERVER_HOST",
	"sqlserver.port":            "SQLSERVER_PORT",
	"sqlserver.user":            "SQLSERVER_USER",
	"sqlserver.password":        "SQLSERVER_PASSWORD",
	"sqlserver.database":        "SQLSERVER_DATABASE",
	"sqlserver.encrypt":         "SQLSERVER_ENCRYPT",
	"sqlserver.read_only":       "SQLSERVER_READ_ONLY",
	"sqlserver.timeout_seconds": "SQLSERVER_TIMEOUT",

	"fabric.tenant_id":       "FABRIC_TENANT_ID",
	"fabric.client_id":       "FABRIC_CLIENT_ID",
	"fabric.client_secret":   "FABRIC_CLIENT_SECRET",
	"fabric.workspace_id":    "FABRIC_WORKSPACE_ID",
	"fabric.sql_endpoint":    "FABRIC_SQL_ENDPOINT",
	"fabric.database":        "FABRIC_DATABASE",
	"fabric.timeout_seconds": "FABRIC_TIMEOUT",

	"azure_openai.endpoint":    "AZURE_OPENAI_ENDPOINT",
	"azure_openai.api_key":     "AZURE_OPENAI_API_KEY",
	"azure_openai.deployment":  "AZURE_OPENAI_DEPLOYMENT",
	"azure_openai.api_version": "AZURE_OPENAI_API_VERSION",
}

// Load reads the YAML file at path (optional when path is the default and
// the file does not exist) and applies environment overrides. Environment
// variables take precedence over file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")

	v.SetDefault("databricks.catalog", "hive_metastore")
	v.SetDefault("databricks.schema", "default")
	v.SetDefault("databricks.timeout_seconds", 120)
	v.SetDefault("databricks.retry_attempts", 3)
	v.SetDefault("databricks.retry_delay", 2)

	v.SetDefault("snowflake.schema", "PUBLIC")
	v.SetDefault("snowflake.timeout_seconds", 120)

	v.SetDefault("sqlserver.port", 1433)
	v.SetDefault("sqlserver.encrypt", "disable")
	v.SetDefault("sqlserver.read_only", false)
	v.SetDefault("sqlserver.timeout_seconds", 120)

	v.SetDefault("fabric.timeout_seconds", 120)

	v.SetDefault("azure_openai.api_version", "2024-02-15-preview")

	v.SetDefault("migration.source_schema", "dbo")
	v.SetDefault("migration.target_schema", "PUBLIC")
	v.SetDefault("migration.batch_size", 1000)
	v.SetDefault("migration.workers", 4)
	v.SetDefault("migration.tables", []string{})

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	// The default file is optional; an explicit --config must exist.
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		Databricks: DatabricksConfig{
			ServerHostname: v.GetString("databricks.server_hostname"),
			HTTPPath:       v.GetString("databricks.http_path"),
			AccessToken:    v.GetString("databricks.access_token"),
			Catalog:        v.GetString("databricks.catalog"),
			Schema:         v.GetString("databricks.schema"),
			Timeout:        time.Duration(v.GetInt("databricks.timeout_seconds")) * time.Second,
			RetryAttempts:  v.GetInt("databricks.retry_attempts"),
			RetryDelay:     time.Duration(v.GetInt("databricks.retry_delay")) * time.Second,
		},
		Snowflake: SnowflakeConfig{
			Account:   v.GetString("snowflake.account"),
			User:      v.GetString("snowflake.user"),
			Password:  v.GetString("snowflake.password"),
			Database:  v.GetString("snowflake.database"),
			Schema:    v.GetString("snowflake.schema"),
			Warehouse: v.GetString("snowflake.warehouse"),
			Role:      v.GetString("snowflake.role"),
			Timeout:   time.Duration(v.GetInt("snowflake.timeout_seconds")) * time.Second,
		},
		SQLServer: SQLServerConfig{
			Host:     v.GetString("sqlserver.host"),
			Port:     v.GetInt("sqlserver.port"),
			User:     v.GetString("sqlserver.user"),
			Password: v.GetString("sqlserver.password"),
			Database: v.GetString("sqlserver.database"),
			Encrypt:  v.GetString("sqlserver.encrypt"),
			ReadOnly: v.GetBool("sqlserver.read_only"),
			Timeout:  time.Duration(v.GetInt("sqlserver.timeout_seconds")) * time.Second,
		},
		Fabric: FabricConfig{
			TenantID:     v.GetString("fabric.tenant_id"),
			ClientID:     v.GetString("fabric.client_id"),
			ClientSecret: v.GetString("fabric.client_secret"),
			WorkspaceID:  v.GetString("fabric.workspace_id"),
			SQLEndpoint:  v.GetString("fabric.sql_endpoint"),
			Database:     v.GetString("fabric.database"),
			Timeout:      time.Duration(v.GetInt("fabric.timeout_seconds")) * time.Second,
		},
		AzureOpenAI: AzureOpenAIConfig{
			Endpoint:   v.GetString("azure_openai.endpoint"),
			APIKey:     v.GetString("azure_openai.api_key"),
			Deployment: v.GetString("azure_openai.deployment"),
			APIVersion: v.GetString("azure_openai.api_version"),
		},
		Migration: MigrationConfig{
			SourceSchema: v.GetString("migration.source_schema"),
			TargetSchema: v.GetString("migration.target_schema"),
			BatchSize:    v.GetInt("migration.batch_size"),
			Workers:      v.GetInt("migration.workers"),
			Tables:       v.GetStringSlice("migration.tables"),
		},
	}

	return cfg, nil
}

func missing(section, field string) error {
	return fmt.Errorf("%s: %w: %s", section, ErrMissingField, field)
}

func (c DatabricksConfig) Validate() error {
	if c.ServerHostname == "" {
		return missing("databricks", "server_hostname")
	}
	if c.HTTPPath == "" {
		return missing("databricks", "http_path")
	}
	if !strings.HasPrefix(c.HTTPPath, "/") {
		return fmt.Errorf("databricks: http_path must start with '/', got %q", c.HTTPPath)
	}
	if c.AccessToken == "" {
		return missing("databricks", "access_token")
	}
	return nil
}

// DSN builds the databricks-sql-go connection string.
func (c DatabricksConfig) DSN() string {
	dsn := fmt.Sprintf("token:%s@%s:443%s", c.AccessToken, c.ServerHostname, c.HTTPPath)
	params := url.Values{}
	if c.Catalog != "" {
		params.Set("catalog", c.Catalog)
	}
	if c.Schema != "" {
		params.Set("schema", c.Schema)
	}
	if encoded := params.Encode(); encoded != "" {
		dsn += "?" + encoded
	}
	return dsn
}

func (c SnowflakeConfig) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"account", c.Account},
		{"user", c.User},
		{"password", c.Password},
		{"database", c.Database},
		{"warehouse", c.Warehouse},
	} {
		if f.value == "" {
			return missing("snowflake", f.name)
		}
	}
	return nil
}

// DSN builds the gosnowflake connection string.
func (c SnowflakeConfig) DSN() string {
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password),
		c.Account, c.Database, c.Schema, c.Warehouse)
	if c.Role != "" {
		dsn += "&role=" + c.Role
	}
	return dsn
}

func (c SQLServerConfig) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"host", c.Host},
		{"user", c.User},
		{"password", c.Password},
		{"database", c.Database},
	} {
		if f.value == "" {
			return missing("sqlserver", f.name)
		}
	}
	return nil
}

// DSN builds the go-mssqldb connection string.
func (c SQLServerConfig) DSN() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	params := url.Values{}
	params.Set("database", c.Database)
	if c.Encrypt != "" {
		params.Set("encrypt", c.Encrypt)
	}
	u.RawQuery = params.Encode()
	return u.String()
}

func (c FabricConfig) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"tenant_id", c.TenantID},
		{"client_id", c.ClientID},
		{"client_secret", c.ClientSecret},
	} {
		if f.value == "" {
			return missing("fabric", f.name)
		}
	}
	if !isGUID(c.TenantID) {
		return fmt.Errorf("fabric: tenant_id must be a GUID, got %q", c.TenantID)
	}
	if !isGUID(c.ClientID) {
		return fmt.Errorf("fabric: client_id must be a GUID, got %q", c.ClientID)
	}
	return nil
}

// SQLDSN builds the TDS connection string for the Fabric SQL endpoint.
// The endpoint only accepts AAD tokens, so the string targets the azuread
// driver: fedauth selects the service-principal flow and the user carries
// client_id@tenant_id, which that driver splits into the token request.
func (c FabricConfig) SQLDSN() string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(fmt.Sprintf("%s@%s", c.ClientID, c.TenantID), c.ClientSecret),
		Host:   c.SQLEndpoint,
	}
	params := url.Values{}
	params.Set("database", c.Database)
	params.Set("fedauth", "ActiveDirectoryServicePrincipal")
	u.RawQuery = params.Encode()
	return u.String()
}

func (c AzureOpenAIConfig) Validate() error {
	if c.Endpoint == "" {
		return missing("azure_openai", "endpoint")
	}
	if c.APIKey == "" {
		return missing("azure_openai", "api_key")
	}
	if c.Deployment == "" {
		return missing("azure_openai", "deployment")
	}
	return nil
}

// isGUID checks the 8-4-4-4-12 shape without validating content.
func isGUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
			if !isHex {
				return false
			}
		}
	}
	return true
}
