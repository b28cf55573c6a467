package core

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolPair couples a tool descriptor with its handler so registries can be
// built as data and checked for completeness.
type ToolPair struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// NewMCPServer builds the underlying MCP server shared by every vendor.
func NewMCPServer(name, version string) *server.MCPServer {
	return server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
}

// RegisterTools adds every pair to the server.
func RegisterTools(s *server.MCPServer, pairs []ToolPair) {
	for _, pair := range pairs {
		s.AddTool(pair.Tool, pair.Handler)
	}
}

// ServeStdio blocks serving the MCP stdio transport.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// OpenDB opens a vendor connection, configures the pool and verifies
// liveness with a retried ping. The returned error is a ConnError.
func OpenDB(ctx context.Context, driver, dsn string, retrier *Retrier) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, NewConnError(KindOther, fmt.Errorf("%w: %v", ErrConnectionFailed, err))
	}

	db.SetMaxOpenConns(DBMaxOpenConns)
	db.SetMaxIdleConns(DBMaxIdleConns)
	db.SetConnMaxLifetime(DBConnMaxLifetime)

	if retrier == nil {
		retrier = NewRetrier(DefaultRetryAttempts, DefaultRetryDelay)
	}
	err = retrier.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, DBPingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
