// Package fabric implements the Microsoft Fabric MCP server. Workspace
// operations go through the Fabric REST API; queries go to the SQL
// endpoint over TDS.
package fabric

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/microsoft/go-mssqldb/azuread"
	"github.com/jmoiron/sqlx"
	"github.com/mark3labs/mcp-go/server"

	"warehouse-mcp/config"
	"warehouse-mcp/core"
)

const serverVersion = "1.0.0"

type Server struct {
	mcp     *server.MCPServer
	rest    *Client
	db      *sqlx.DB
	cfg     config.FabricConfig
	dialect core.SQLServerDialect
	log     *log.Logger
}

// NewServer validates credentials and opens the SQL endpoint when one is
// configured. Without a SQL endpoint the server still starts and serves
// the REST tools; execute_query then reports the missing connection.
func NewServer(ctx context.Context, cfg config.FabricConfig, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		mcp:  core.NewMCPServer("Fabric MCP", serverVersion),
		rest: NewClient(ctx, cfg),
		cfg:  cfg,
		log:  logger,
	}

	if cfg.SQLEndpoint != "" && cfg.Database != "" {
		// The base sqlserver driver ignores fedauth; only the azuread
		// driver runs the service-principal token flow.
		db, err := core.OpenDB(ctx, azuread.DriverName, cfg.SQLDSN(), nil)
		if err != nil {
			return nil, err
		}
		s.db = db
		logger.Info("connected to Fabric SQL endpoint", "endpoint", cfg.SQLEndpoint, "database", cfg.Database)
	} else {
		logger.Warn("no SQL endpoint configured, query tools disabled")
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
