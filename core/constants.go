package core

import "time"

// Connection pool configuration
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 30 * time.Minute
	DBPingTimeout     = 10 * time.Second
)

// Query limits
const (
	DefaultMaxRows = 100
	HardMaxRows    = 10000

	DefaultQueryTimeout  = 120 * time.Second
	MetadataQueryTimeout = 30 * time.Second
)

// Retry defaults, overridable per server via configuration
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 2 * time.Second
)

// Query types reported in results
const (
	QueryTypeRead  = "read"
	QueryTypeWrite = "write"
)
