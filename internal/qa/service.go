// Package qa answers free-text medical questions by running the entity
// matcher, intent classifier, query generator and graph executor in order,
// with a result cache in front of the graph.
package qa

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/medqa/internal/cache"
	"github.com/zero-day-ai/medqa/internal/contextkeys"
	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/intent"
	"github.com/zero-day-ai/medqa/internal/matcher"
	"github.com/zero-day-ai/medqa/internal/metrics"
	"github.com/zero-day-ai/medqa/internal/query"
	"github.com/zero-day-ai/medqa/internal/types"
)

// Outcome explains how a question was answered, or why it was not.
type Outcome string

const (
	OutcomeAnswered      Outcome = "answered"
	OutcomeEmptyQuestion Outcome = "empty_question"
	OutcomeNoEntities    Outcome = "no_entities"
	OutcomeNoIntent      Outcome = "no_intent"
	OutcomeNoQuery       Outcome = "no_query"
	OutcomeNoResults     Outcome = "no_results"
	OutcomeCached        Outcome = "cached"
)

// String returns the outcome name.
func (o Outcome) String() string {
	return string(o)
}

// HasRecords reports whether the outcome carries records.
func (o Outcome) HasRecords() bool {
	return o == OutcomeAnswered || o == OutcomeCached
}

// Answer is the result of one question.
type Answer struct {
	RequestID string           `json:"request_id"`
	Question  string           `json:"question"`
	Outcome   Outcome          `json:"outcome"`
	Entities  matcher.Entities `json:"entities"`
	Intents   []intent.Intent  `json:"intents"`
	Records   []graph.Record   `json:"records"`
}

// Dependencies are the components a Service is built from. Classifier,
// Generator and Executor are required.
type Dependencies struct {
	Classifier *intent.Classifier
	Generator  *query.Generator
	Executor   *graph.Executor
	Cache      *cache.ResultCache
	Fallback   *intent.FallbackResolver
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithCacheTTL sets the expiry of stored answers. Zero uses the cache
// default.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// Service is the question-answering pipeline. It is immutable after
// construction and safe for concurrent use.
type Service struct {
	classifier *intent.Classifier
	generator  *query.Generator
	executor   *graph.Executor
	cache      *cache.ResultCache
	fallback   *intent.FallbackResolver
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	cacheTTL   time.Duration
}

// NewService validates deps and builds a Service.
func NewService(deps Dependencies, opts ...Option) (*Service, error) {
	switch {
	case deps.Classifier == nil:
		return nil, types.NewError(types.INIT_FAILED, "qa service requires a classifier")
	case deps.Generator == nil:
		return nil, types.NewError(types.INIT_FAILED, "qa service requires a query generator")
	case deps.Executor == nil:
		return nil, types.NewError(types.INIT_FAILED, "qa service requires a graph executor")
	}

	s := &Service{
		classifier: deps.Classifier,
		generator:  deps.Generator,
		executor:   deps.Executor,
		cache:      deps.Cache,
		fallback:   deps.Fallback,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("medqa/qa")
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Classify extracts entities and intents without touching the graph or the
// cache. The model fallback is consulted when configured.
func (s *Service) Classify(ctx context.Context, question string) intent.Result {
	ctx, span := s.tracer.Start(ctx, "medqa.qa.classify")
	defer span.End()

	res := s.classifier.ClassifyQuestion(question)
	res = s.fallback.Resolve(ctx, question, res)

	span.SetAttributes(
		attribute.Int("medqa.entities", len(res.Entities)),
		attribute.StringSlice("medqa.intents", intentNames(res.Intents)),
	)
	return res
}

// Answer runs the pipeline for question. It never fails: every way of not
// answering is reported as an Outcome. Questions without entities never reach
// the cache or the graph.
func (s *Service) Answer(ctx context.Context, question string) Answer {
	start := time.Now()
	ans := Answer{
		RequestID: uuid.NewString(),
		Question:  question,
	}

	ctx = contextkeys.WithRequestID(ctx, ans.RequestID)
	ctx, span := s.tracer.Start(ctx, "medqa.qa.answer", trace.WithAttributes(
		attribute.String("medqa.request_id", ans.RequestID),
	))
	defer span.End()
	logger := s.logger

	ans.Outcome = s.answer(ctx, logger, question, &ans)

	elapsed := time.Since(start)
	s.metrics.ObserveQuestion(ans.Outcome.String(), elapsed)
	for _, i := range ans.Intents {
		s.metrics.IncIntent(i.String())
	}
	span.SetAttributes(
		attribute.String("medqa.outcome", ans.Outcome.String()),
		attribute.Int("medqa.records", len(ans.Records)),
	)
	logger.InfoContext(ctx, "question answered",
		"outcome", ans.Outcome,
		"entities", len(ans.Entities),
		"intents", intentNames(ans.Intents),
		"records", len(ans.Records),
		"duration", elapsed,
	)
	return ans
}

func (s *Service) answer(ctx context.Context, logger *slog.Logger, question string, ans *Answer) Outcome {
	if strings.TrimSpace(question) == "" {
		return OutcomeEmptyQuestion
	}

	res := s.classifier.ClassifyQuestion(question)
	ans.Entities = res.Entities
	if len(res.Entities) == 0 {
		return OutcomeNoEntities
	}

	if records, ok := s.cache.Lookup(ctx, question); ok {
		ans.Intents = res.Intents
		ans.Records = records
		return OutcomeCached
	}

	res = s.fallback.Resolve(ctx, question, res)
	ans.Intents = res.Intents
	if len(res.Intents) == 0 {
		return OutcomeNoIntent
	}

	tasks := s.generator.Generate(res)
	if len(tasks) == 0 {
		logger.DebugContext(ctx, "no query generated", "intents", intentNames(res.Intents))
		return OutcomeNoQuery
	}

	records := s.executor.ExecuteBatch(ctx, tasks)
	if len(records) == 0 {
		return OutcomeNoResults
	}
	ans.Records = records

	s.cache.Store(ctx, question, records, s.cacheTTL)
	return OutcomeAnswered
}

// Health combines the graph connection and cache health.
func (s *Service) Health(ctx context.Context) types.HealthStatus {
	statuses := []types.HealthStatus{s.executor.Client().Health(ctx)}
	if s.cache != nil {
		statuses = append(statuses, s.cache.Health(ctx))
	}
	return types.Worst(statuses...)
}

func intentNames(intents []intent.Intent) []string {
	out := make([]string, len(intents))
	for i, in := range intents {
		out[i] = in.String()
	}
	return out
}
