// Package snowflake implements the Snowflake MCP server.
package snowflake

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/mark3labs/mcp-go/server"
	_ "github.com/snowflakedb/gosnowflake"

	"warehouse-mcp/config"
	"warehouse-mcp/core"
)

const serverVersion = "1.0.0"

type Server struct {
	mcp     *server.MCPServer
	cfg     config.SnowflakeConfig
	dialect core.SnowflakeDialect
	log     *log.Logger

	// Single guarded connection slot; conn() refreshes it after the
	// session drops.
	mu sync.Mutex
	db *sqlx.DB
}

func NewServer(ctx context.Context, cfg config.SnowflakeConfig, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := core.OpenDB(ctx, "snowflake", cfg.DSN(), nil)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to Snowflake", "account", cfg.Account, "database", cfg.Database, "warehouse", cfg.Warehouse)

	s := &Server{
		mcp: core.NewMCPServer("Snowflake MCP", serverVersion),
		cfg: cfg,
		log: logger,
		db:  db,
	}
	core.RegisterTools(s.mcp, s.tools())
	return s, nil
}

// conn returns the live connection, reopening the slot if the session was
// dropped (for example after the warehouse auto-suspended).
func (s *Server) conn(ctx context.Context) (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, core.DBPingTimeout)
		err := s.db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return s.db, nil
		}
		s.log.Warn("Snowflake session lost, reconnecting", "err", err)
		s.db.Close()
		s.db = nil
	}

	db, err := core.OpenDB(ctx, "snowflake", s.cfg.DSN(), nil)
	if err != nil {
		return nil, err
	}
	s.db = db
	return s.db, nil
}

func (s *Server) Start() error {
	return core.ServeStdio(s.mcp)
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
