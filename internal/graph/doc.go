// Package graph provides read access to the medical knowledge graph.
//
// # Architecture
//
//   - GraphClient: Core interface for the graph database
//   - Neo4jClient: Production implementation using the Neo4j Go driver
//   - MockGraphClient: Recording test double
//   - Executor: Runs generated queries with bounded retries and normalizes
//     the rows into Records
//
// # Usage
//
//	config := graph.DefaultConfig()
//	config.URI = "bolt://localhost:7687"
//
//	client, err := graph.NewNeo4jClient(config)
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	exec := graph.NewExecutor(client, retry.DefaultPolicy(), logger)
//	records := exec.ExecuteBatch(ctx, tasks)
//
// # Connection Management
//
// The driver keeps one pool for the life of the process:
//
//   - MaxConnectionPoolSize: Maximum connections in the pool (default: 50)
//   - MaxConnectionLifetime: Age at which connections are replaced (default: 1h)
//   - ConnectionAcquisitionTimeout: Wait for a pooled connection (default: 60s)
//
// Every query runs in a read transaction limited by QueryTimeout (default:
// 30s) and reads at most MaxRows rows (default: 1000).
//
// # Failure Handling
//
// The Executor retries connectivity errors, timeouts and errors marked
// retryable. Before each retry it asks the client to rebuild its pool. When
// all attempts fail it logs a single error and returns no rows, so one bad
// query never aborts a batch.
package graph
