package graph

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/medqa/internal/metrics"
	"github.com/zero-day-ai/medqa/internal/query"
	"github.com/zero-day-ai/medqa/internal/retry"
)

// Executor runs generated queries against a GraphClient. Query failures never
// reach the caller: they are retried when transient, logged, and turned into
// empty results.
type Executor struct {
	client  GraphClient
	policy  retry.Policy
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTracer sets the tracer used for query spans.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// NewExecutor creates an executor. A zero policy runs each query once.
func NewExecutor(client GraphClient, policy retry.Policy, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		client: client,
		policy: policy,
		logger: logger,
		tracer: otel.Tracer("medqa/graph"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Client returns the underlying graph client.
func (e *Executor) Client() GraphClient {
	return e.client
}

// ExecuteOne runs a single query and returns its rows. Transient failures are
// retried up to the policy's attempt limit, reconnecting before each retry.
// When the query still fails the error is logged once and an empty slice is
// returned.
func (e *Executor) ExecuteOne(ctx context.Context, cypher string, params map[string]any) []map[string]any {
	ctx, span := e.tracer.Start(ctx, "medqa.graph.query")
	defer span.End()

	start := time.Now()
	attempts := 0
	var gen uint64
	result, err := retry.DoWithResult(ctx, e.policy, func(ctx context.Context) (QueryResult, error) {
		attempts++
		if r, ok := e.client.(Reconnector); ok {
			gen = r.Generation()
		}
		return e.client.Query(ctx, cypher, params)
	},
		retry.IsRetryable(IsTransient),
		retry.OnRetry(func(attempt int, lastErr error) error {
			e.metrics.IncGraphRetry()
			e.logger.WarnContext(ctx, "retrying graph query",
				"attempt", attempt,
				"max_attempts", e.policy.MaxAttempts,
				"error", lastErr,
			)
			e.reconnect(ctx, gen)
			return nil
		}),
	)

	span.SetAttributes(attribute.Int("medqa.graph.attempts", attempts))
	e.metrics.ObserveGraphQuery(err == nil, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.ErrorContext(ctx, "graph query failed",
			"attempts", attempts,
			"params", params,
			"error", err,
		)
		return []map[string]any{}
	}

	if result.Summary.Truncated {
		e.metrics.IncGraphTruncated()
		e.logger.WarnContext(ctx, "graph query result truncated", "rows", len(result.Records))
	}
	span.SetAttributes(attribute.Int("medqa.graph.rows", len(result.Records)))

	if result.Records == nil {
		return []map[string]any{}
	}
	return result.Records
}

// reconnect rebuilds the pool the failed attempt ran on. Concurrent callers
// that failed on the same pool trigger a single rebuild.
func (e *Executor) reconnect(ctx context.Context, failedGen uint64) {
	var err error
	if r, ok := e.client.(Reconnector); ok {
		err = r.Reconnect(ctx, failedGen)
	} else {
		_ = e.client.Close(ctx)
		err = e.client.Connect(ctx)
	}
	if err != nil {
		e.logger.WarnContext(ctx, "graph reconnect failed", "error", err)
	}
}

// ExecuteBatch runs every query of every task in order and normalizes the
// combined rows into records.
func (e *Executor) ExecuteBatch(ctx context.Context, tasks []query.Task) []Record {
	ctx, span := e.tracer.Start(ctx, "medqa.graph.batch")
	defer span.End()

	var batches []ShapedRows
	queries := 0
	for _, task := range tasks {
		for _, q := range task.Queries {
			queries++
			batches = append(batches, ShapedRows{
				Shape: q.Shape,
				Rows:  e.ExecuteOne(ctx, q.Cypher, q.Params),
			})
		}
	}

	records, dropped := Normalize(batches)
	if dropped > 0 {
		e.metrics.AddGraphRowsDropped(dropped)
		e.logger.WarnContext(ctx, "dropped rows without main entity", "rows", dropped)
	}

	span.SetAttributes(
		attribute.Int("medqa.graph.queries", queries),
		attribute.Int("medqa.graph.records", len(records)),
	)
	return records
}
