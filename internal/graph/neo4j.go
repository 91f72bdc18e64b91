package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/zero-day-ai/medqa/internal/types"
)

// Neo4jClient implements GraphClient for Neo4j graph databases.
// The driver owns a connection pool that is shared by all queries.
type Neo4jClient struct {
	config GraphClientConfig

	mu   sync.RWMutex
	pool *pool
	gen  uint64
}

// pool is one driver generation. Queries hold a reference while they run so a
// replaced driver is closed only after its last query has finished.
type pool struct {
	driver   neo4j.DriverWithContext
	inflight sync.WaitGroup
}

// retire closes the driver once the queries still running on it are done.
func (p *pool) retire() {
	go func() {
		p.inflight.Wait()
		_ = p.driver.Close(context.Background())
	}()
}

// NewNeo4jClient creates a new Neo4j client with the given configuration.
// The client must be connected via Connect() before use.
func NewNeo4jClient(config GraphClientConfig) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Neo4jClient{
		config: config,
	}, nil
}

func (c *Neo4jClient) newDriver(ctx context.Context) (neo4j.DriverWithContext, error) {
	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")

	// Encryption is controlled by the URI scheme (bolt:// vs bolt+s://).
	driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		config.MaxConnectionLifetime = c.config.MaxConnectionLifetime
		config.ConnectionAcquisitionTimeout = c.config.ConnectionAcquisitionTimeout
	})
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return driver, nil
}

// Connect creates the driver and verifies connectivity. A failure here is
// fatal for the caller; there is no background reconnect.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil {
		return nil
	}

	driver, err := c.newDriver(ctx)
	if err != nil {
		return types.WrapError(ErrCodeGraphConnectionFailed,
			fmt.Sprintf("failed to connect to %s", c.config.URI), err)
	}
	c.pool = &pool{driver: driver}
	c.gen++
	return nil
}

// Generation returns the generation of the current driver.
func (c *Neo4jClient) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Reconnect replaces the driver if it is still generation failedGen. When a
// concurrent caller already replaced it the call is a no-op. The old driver is
// closed after its in-flight queries complete.
func (c *Neo4jClient) Reconnect(ctx context.Context, failedGen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil && c.gen != failedGen {
		return nil
	}

	driver, err := c.newDriver(ctx)
	if err != nil {
		return types.WrapRetryableError(ErrCodeGraphConnectionFailed,
			fmt.Sprintf("failed to reconnect to %s", c.config.URI), err)
	}
	if c.pool != nil {
		c.pool.retire()
	}
	c.pool = &pool{driver: driver}
	c.gen++
	return nil
}

// Close releases all resources and closes the database connection.
func (c *Neo4jClient) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool == nil {
		return nil
	}

	err := c.pool.driver.Close(ctx)
	c.pool = nil
	if err != nil {
		return types.WrapError(ErrCodeGraphConnectionClosed,
			"failed to close driver", err)
	}
	return nil
}

// Health returns the current health status of the Neo4j connection.
func (c *Neo4jClient) Health(ctx context.Context) types.HealthStatus {
	p := c.acquire()
	if p == nil {
		return types.Unhealthy("driver not initialized")
	}
	defer p.inflight.Done()
	driver := p.driver

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}

	return types.Healthy("connected to Neo4j")
}

// acquire returns the current pool with a query reference held, or nil when
// the client is not connected. Callers release it with inflight.Done.
func (c *Neo4jClient) acquire() *pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pool == nil {
		return nil
	}
	c.pool.inflight.Add(1)
	return c.pool
}

// Query executes a Cypher query in a read transaction bounded by the
// configured timeout. At most MaxRows records are read.
func (c *Neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	p := c.acquire()
	if p == nil {
		return QueryResult{}, types.NewRetryableError(ErrCodeGraphConnectionClosed,
			"driver not connected")
	}
	defer p.inflight.Done()
	driver := p.driver

	startTime := time.Now()

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	maxRows := c.config.MaxRows
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		keys, err := neoResult.Keys()
		if err != nil {
			return nil, err
		}

		out := QueryResult{
			Records: make([]map[string]any, 0),
			Columns: keys,
		}
		for neoResult.Next(ctx) {
			if len(out.Records) >= maxRows {
				out.Summary.Truncated = true
				break
			}
			out.Records = append(out.Records, neoResult.Record().AsMap())
		}
		if err := neoResult.Err(); err != nil {
			return nil, err
		}
		return out, nil
	}, neo4j.WithTxTimeout(c.config.QueryTimeout))

	if err != nil {
		return QueryResult{}, wrapQueryError(err)
	}

	queryResult := result.(QueryResult)
	queryResult.Summary.ExecutionTime = time.Since(startTime)

	return queryResult, nil
}

func wrapQueryError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return types.WrapRetryableError(ErrCodeGraphQueryTimeout, "query timed out", err)
	case IsTransient(err):
		return types.WrapRetryableError(ErrCodeGraphQueryFailed, "query execution failed", err)
	default:
		return types.WrapError(ErrCodeGraphQueryFailed, "query execution failed", err)
	}
}
