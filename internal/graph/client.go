package graph

import (
	"context"
	"time"

	"github.com/zero-day-ai/medqa/internal/types"
)

// GraphClient provides read access to the medical knowledge graph.
// Implementations must be thread-safe for concurrent access.
type GraphClient interface {
	// Connect establishes the connection pool. It is called once at startup.
	Connect(ctx context.Context) error

	// Close releases all resources and closes the database connection.
	Close(ctx context.Context) error

	// Health returns the current health status of the graph database connection.
	Health(ctx context.Context) types.HealthStatus

	// Query executes a read-only Cypher query with the given parameters.
	Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)
}

// Reconnector is implemented by clients that can rebuild their connection pool
// in place. The Executor reconnects before every retry.
//
// Every pool carries a generation number. A caller passes the generation its
// failed query ran on; when another caller has already replaced that pool,
// Reconnect returns nil without touching the fresh one.
type Reconnector interface {
	// Generation returns the generation of the current pool.
	Generation() uint64

	// Reconnect rebuilds the pool if it is still generation failedGen.
	Reconnect(ctx context.Context, failedGen uint64) error
}

// QueryResult represents the result of a Cypher query execution.
type QueryResult struct {
	// Records contains the result rows as maps of column name to value.
	Records []map[string]any

	// Columns contains the names of the columns in the result set.
	Columns []string

	// Summary contains metadata about the query execution.
	Summary QuerySummary
}

// QuerySummary provides metadata about query execution.
type QuerySummary struct {
	// ExecutionTime is the duration of query execution.
	ExecutionTime time.Duration

	// Truncated is set when the row cap stopped reading before the end of the
	// result stream.
	Truncated bool
}

// GraphClientConfig contains configuration options for graph database clients.
type GraphClientConfig struct {
	// URI is the connection URI for the graph database.
	// For Neo4j, use:
	//   - "bolt://host:port" for unencrypted connections
	//   - "bolt+s://host:port" for TLS encrypted connections
	//   - "neo4j://" or "neo4j+s://" for routing
	URI string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Database name to connect to.
	// Empty string uses the default database.
	Database string

	// MaxConnectionPoolSize limits the number of connections in the pool.
	MaxConnectionPoolSize int

	// MaxConnectionLifetime is the age after which pooled connections are
	// replaced.
	MaxConnectionLifetime time.Duration

	// ConnectionAcquisitionTimeout is the maximum time to wait for a pooled
	// connection.
	ConnectionAcquisitionTimeout time.Duration

	// QueryTimeout bounds each read transaction.
	QueryTimeout time.Duration

	// MaxRows caps the rows read from a single query.
	MaxRows int
}

// DefaultConfig returns a GraphClientConfig with sensible defaults.
func DefaultConfig() GraphClientConfig {
	return GraphClientConfig{
		URI:                          "bolt://localhost:7687",
		Username:                     "neo4j",
		Password:                     "password",
		Database:                     "",
		MaxConnectionPoolSize:        50,
		MaxConnectionLifetime:        time.Hour,
		ConnectionAcquisitionTimeout: 60 * time.Second,
		QueryTimeout:                 30 * time.Second,
		MaxRows:                      1000,
	}
}

// Validate checks if the configuration is valid.
func (c GraphClientConfig) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
	}
	if c.MaxConnectionPoolSize <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxConnectionPoolSize must be positive")
	}
	if c.ConnectionAcquisitionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionAcquisitionTimeout must be positive")
	}
	if c.QueryTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "QueryTimeout must be positive")
	}
	if c.MaxRows <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxRows must be positive")
	}
	return nil
}
