// Package databricks implements the Databricks MCP server: SQL over a
// warehouse plus workspace REST operations (clusters, jobs, warehouses).
package databricks

import (
	"context"

	"github.com/charmbracelet/log"
	_ "github.com/databricks/databricks-sql-go"
	"github.com/jmoiron/sqlx"
	"github.com/mark3labs/mcp-go/server"

	"warehouse-mcp/config"
	"warehouse-mcp/core"
)

const serverVersion = "1.0.0"

type Server struct {
	mcp     *server.MCPServer
	db      *sqlx.DB
	rest    *RESTClient
	cfg     config.DatabricksConfig
	dialect core.DatabricksDialect
	log     *log.Logger
}

func NewServer(ctx context.Context, cfg config.DatabricksConfig, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Cold starts surface as retryable warehouse errors, so the retried
	// ping doubles as the warm-up wait.
	retrier := core.NewRetrier(cfg.RetryAttempts, cfg.RetryDelay)
	db, err := core.OpenDB(ctx, "databricks", cfg.DSN(), retrier)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to Databricks", "hostname", cfg.ServerHostname, "catalog", cfg.Catalog, "schema", cfg.Schema)

	s := &Server{
		mcp:     core.NewMCPServer("Databricks MCP", serverVersion),
		db:      db,
		rest:    NewRESTClient(cfg.ServerHostname, cfg.AccessToken, cfg.Timeout),
		cfg:     cfg,
		dialect: core.DatabricksDialect{Catalog: cfg.Catalog},
		log:     logger,
	}
	core.RegisterTools(s.mcp, s.tools())
	return s, nil
}

func (s *Server) Start() error {
	return core.ServeStdio(s.mcp)
}

func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
