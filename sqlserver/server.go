// Package sqlserver implements the SQL Server MCP server.
package sqlserver

import (
	"context"

	"github.com/charmbracelet/log"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/jmoiron/sqlx"
	"github.com/mark3labs/mcp-go/server"

	"warehouse-mcp/config"
	"warehouse-mcp/core"
)

const serverVersion = "1.0.0"

type Server struct {
	mcp     *server.MCPServer
	db      *sqlx.DB
	cfg     config.SQLServerConfig
	dialect core.SQLServerDialect
	log     *log.Logger
}

// NewServer validates the configuration, opens the connection and
// registers the tool set.
func NewServer(ctx context.Context, cfg config.SQLServerConfig, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := core.OpenDB(ctx, "sqlserver", cfg.DSN(), nil)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to SQL Server", "host", cfg.Host, "database", cfg.Database, "read_only", cfg.ReadOnly)

	s := &Server{
		mcp: core.NewMCPServer("SQL Server MCP", serverVersion),
		db:  db,
		cfg: cfg,
		log: logger,
	}
	core.RegisterTools(s.mcp, s.tools())
	return s, nil
}

// Start serves MCP over stdio until the client disconnects.
func (s *Server) Start() error {
	return core.ServeStdio(s.mcp)
}

func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
