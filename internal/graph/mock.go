package graph

import (
	"context"
	"sync"
	"time"

	"github.com/zero-day-ai/medqa/internal/types"
)

// MockCall represents a recorded method call on the mock graph client.
type MockCall struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

// QueryHandler computes the mock's answer for one query.
type QueryHandler func(cypher string, params map[string]any) (QueryResult, error)

// MockGraphClient is a mock implementation of GraphClient for testing.
// It provides configurable responses and tracks all method calls for verification.
//
// Query answers come from, in order: the queued errors, the queued results
// (FIFO), the handler, and finally an empty result.
type MockGraphClient struct {
	mu sync.RWMutex

	connected    bool
	generation   uint64
	healthStatus types.HealthStatus
	calls        []MockCall

	queryResults   []QueryResult
	queryErrors    []error
	queryError     error
	handler        QueryHandler
	connectError   error
	reconnectError error
	closeError     error
}

// NewMockGraphClient creates a new mock graph client for testing.
func NewMockGraphClient() *MockGraphClient {
	return &MockGraphClient{
		healthStatus: types.Healthy("mock graph client"),
		calls:        make([]MockCall, 0),
		queryResults: make([]QueryResult, 0),
	}
}

func (m *MockGraphClient) record(method string, args ...interface{}) {
	m.calls = append(m.calls, MockCall{
		Method:    method,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// Connect records the call and simulates connection.
func (m *MockGraphClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Connect")
	if m.connectError != nil {
		return m.connectError
	}
	m.connected = true
	return nil
}

// Generation returns the number of successful pool rebuilds.
func (m *MockGraphClient) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Reconnect records the call and simulates rebuilding the pool. A stale
// failedGen leaves a connected pool alone.
func (m *MockGraphClient) Reconnect(ctx context.Context, failedGen uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Reconnect", failedGen)
	if m.connected && failedGen != m.generation {
		return nil
	}
	if m.reconnectError != nil {
		m.connected = false
		return m.reconnectError
	}
	m.connected = true
	m.generation++
	return nil
}

// Close records the call and simulates disconnection.
func (m *MockGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Close")
	if m.closeError != nil {
		return m.closeError
	}
	m.connected = false
	return nil
}

// Health records the call and returns the configured health status.
func (m *MockGraphClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Health")
	if !m.connected {
		return types.Unhealthy("not connected")
	}
	return m.healthStatus
}

// Query records the call and returns the configured answer.
func (m *MockGraphClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Query", cypher, params)

	if !m.connected {
		return QueryResult{}, types.NewRetryableError(ErrCodeGraphConnectionClosed,
			"not connected")
	}

	if len(m.queryErrors) > 0 {
		err := m.queryErrors[0]
		m.queryErrors = m.queryErrors[1:]
		if err != nil {
			return QueryResult{}, err
		}
	}
	if m.queryError != nil {
		return QueryResult{}, m.queryError
	}

	if len(m.queryResults) > 0 {
		result := m.queryResults[0]
		m.queryResults = m.queryResults[1:]
		return result, nil
	}

	if m.handler != nil {
		return m.handler(cypher, params)
	}

	return QueryResult{
		Records: []map[string]any{},
		Columns: []string{},
	}, nil
}

// SetQueryError makes every query fail with err. Pass nil to clear.
func (m *MockGraphClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
}

// QueueQueryErrors makes the next queries fail in order. A nil entry lets that
// query fall through to the normal answer.
func (m *MockGraphClient) QueueQueryErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErrors = append(m.queryErrors, errs...)
}

// AddQueryResult queues a result returned by a later Query call.
func (m *MockGraphClient) AddQueryResult(result QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryResults = append(m.queryResults, result)
}

// SetQueryHandler installs a function that answers queries not served from the
// queue.
func (m *MockGraphClient) SetQueryHandler(h QueryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// SetConnectError sets the error returned by Connect.
func (m *MockGraphClient) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetReconnectError sets the error returned by Reconnect.
func (m *MockGraphClient) SetReconnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnectError = err
}

// SetCloseError sets the error returned by Close.
func (m *MockGraphClient) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeError = err
}

// SetHealthStatus sets the status reported while connected.
func (m *MockGraphClient) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthStatus = status
}

// GetCalls returns a copy of all recorded calls.
func (m *MockGraphClient) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many times method was called.
func (m *MockGraphClient) CallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls and queued answers.
func (m *MockGraphClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = make([]MockCall, 0)
	m.queryResults = make([]QueryResult, 0)
	m.queryErrors = nil
	m.queryError = nil
	m.handler = nil
}

// IsConnected returns whether the mock is connected.
func (m *MockGraphClient) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

var (
	_ GraphClient = (*MockGraphClient)(nil)
	_ Reconnector = (*MockGraphClient)(nil)
	_ GraphClient = (*Neo4jClient)(nil)
	_ Reconnector = (*Neo4jClient)(nil)
)
