package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zero-day-ai/medqa/internal/cache"
	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/intent"
	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/matcher"
	"github.com/zero-day-ai/medqa/internal/observability"
	"github.com/zero-day-ai/medqa/internal/query"
	"github.com/zero-day-ai/medqa/internal/retry"
	"github.com/zero-day-ai/medqa/internal/types"
)

type fixture struct {
	svc   *Service
	graph *graph.MockGraphClient
	redis *miniredis.Miniredis
	local *cache.LocalTier
	spans *tracetest.InMemoryExporter
}

func symptomRows(cypher string, params map[string]any) (graph.QueryResult, error) {
	if params[query.ParamName] != "高血压" || !strings.Contains(cypher, "has_symptom") {
		return graph.QueryResult{}, nil
	}
	return graph.QueryResult{Records: []map[string]any{
		{"main": "高血压", "source": "高血压", "relation": "症状", "target": "头晕"},
		{"main": "高血压", "source": "高血压", "relation": "症状", "target": "头痛"},
	}}, nil
}

func newFixture(t *testing.T, fb intent.Fallback) *fixture {
	t.Helper()
	ctx := context.Background()

	lex, err := lexicon.New(map[lexicon.Category][]string{
		lexicon.Disease:  {"高血压", "糖尿病"},
		lexicon.Symptom:  {"头晕"},
		lexicon.Drug:     {"阿司匹林"},
		lexicon.Negation: {"不"},
	})
	require.NoError(t, err)
	m, err := matcher.New(lex)
	require.NoError(t, err)
	classifier, err := intent.NewClassifier(m)
	require.NoError(t, err)
	catalog, err := query.DefaultCatalog()
	require.NoError(t, err)

	client := graph.NewMockGraphClient()
	require.NoError(t, client.Connect(ctx))
	client.SetQueryHandler(symptomRows)
	executor := graph.NewExecutor(client, retry.Policy{MaxAttempts: 1}, nil)

	mr := miniredis.RunT(t)
	shared := cache.NewRedisTier(cache.RedisConfig{Addr: mr.Addr(), Namespace: "medqa:"})
	local := cache.NewLocalTier(0)
	results := cache.New(cache.DefaultConfig(), local, shared, nil)
	t.Cleanup(func() { _ = results.Close() })

	spans := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	svc, err := NewService(Dependencies{
		Classifier: classifier,
		Generator:  query.NewGenerator(catalog),
		Executor:   executor,
		Cache:      results,
		Fallback:   intent.NewFallbackResolver(fb, 0, nil),
		Tracer:     tp.Tracer("test"),
	})
	require.NoError(t, err)

	return &fixture{svc: svc, graph: client, redis: mr, local: local, spans: spans}
}

func TestAnswer_Answered(t *testing.T) {
	f := newFixture(t, nil)

	ans := f.svc.Answer(context.Background(), "高血压有哪些症状")

	assert.Equal(t, OutcomeAnswered, ans.Outcome)
	assert.NotEmpty(t, ans.RequestID)
	assert.Equal(t, []string{"高血压"}, ans.Entities.Terms())
	assert.Equal(t, []intent.Intent{intent.DiseaseSymptom}, ans.Intents)
	require.Len(t, ans.Records, 1)
	assert.Equal(t, "高血压", ans.Records[0].MainEntity)
	assert.Equal(t, []graph.Relation{
		{Source: "高血压", Relation: "症状", Target: "头晕"},
		{Source: "高血压", Relation: "症状", Target: "头痛"},
	}, ans.Records[0].Relations)

	assert.True(t, f.redis.Exists("medqa:"+cache.Key("高血压有哪些症状")))
}

func TestAnswer_SecondCallIsCachedAndIdentical(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first := f.svc.Answer(ctx, "高血压有哪些症状")
	queries := f.graph.CallCount("Query")

	second := f.svc.Answer(ctx, "高血压有哪些症状")
	assert.Equal(t, OutcomeCached, second.Outcome)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Intents, second.Intents)
	assert.Equal(t, queries, f.graph.CallCount("Query"))
	assert.NotEqual(t, first.RequestID, second.RequestID)
}

func TestAnswer_CacheKeyIsExactText(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.svc.Answer(ctx, "高血压有哪些症状")
	ans := f.svc.Answer(ctx, "高血压有哪些症状？")
	assert.Equal(t, OutcomeAnswered, ans.Outcome)
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	f := newFixture(t, nil)

	for _, q := range []string{"", "  \t\n"} {
		ans := f.svc.Answer(context.Background(), q)
		assert.Equal(t, OutcomeEmptyQuestion, ans.Outcome)
	}
	assert.Zero(t, f.graph.CallCount("Query"))
}

func TestAnswer_NoEntitiesTouchesNeitherGraphNorCache(t *testing.T) {
	f := newFixture(t, nil)

	ans := f.svc.Answer(context.Background(), "今天天气怎么样")

	assert.Equal(t, OutcomeNoEntities, ans.Outcome)
	assert.Empty(t, ans.Entities)
	assert.Empty(t, ans.Records)
	assert.Zero(t, f.graph.CallCount("Query"))
	assert.Empty(t, f.redis.Keys())
	assert.Zero(t, f.local.Len())
}

func TestAnswer_NoIntent(t *testing.T) {
	f := newFixture(t, nil)

	ans := f.svc.Answer(context.Background(), "阿司匹林")
	assert.Equal(t, OutcomeNoIntent, ans.Outcome)
	assert.Equal(t, []string{"阿司匹林"}, ans.Entities.Terms())
	assert.Zero(t, f.graph.CallCount("Query"))
}

func TestAnswer_FallbackSuppliesIntent(t *testing.T) {
	f := newFixture(t, intent.FallbackFunc(func(ctx context.Context, q string) ([]intent.Prediction, error) {
		return []intent.Prediction{{Label: "drug_disease", Confidence: 0.9}}, nil
	}))
	f.graph.SetQueryHandler(func(cypher string, params map[string]any) (graph.QueryResult, error) {
		return graph.QueryResult{Records: []map[string]any{
			{"main": "阿司匹林", "source": "高血压", "relation": "常用药品", "target": "阿司匹林"},
		}}, nil
	})

	ans := f.svc.Answer(context.Background(), "阿司匹林")
	assert.Equal(t, OutcomeAnswered, ans.Outcome)
	assert.Equal(t, []intent.Intent{intent.DrugDisease}, ans.Intents)
	require.Len(t, ans.Records, 1)
	assert.Equal(t, "阿司匹林", ans.Records[0].MainEntity)
}

func TestAnswer_NoQuery(t *testing.T) {
	f := newFixture(t, intent.FallbackFunc(func(ctx context.Context, q string) ([]intent.Prediction, error) {
		return []intent.Prediction{{Label: "disease_symptom", Confidence: 0.95}}, nil
	}))

	ans := f.svc.Answer(context.Background(), "阿司匹林")
	assert.Equal(t, OutcomeNoQuery, ans.Outcome)
	assert.Zero(t, f.graph.CallCount("Query"))
}

func TestAnswer_NoResultsAreNotCached(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	ans := f.svc.Answer(ctx, "糖尿病有哪些症状")
	assert.Equal(t, OutcomeNoResults, ans.Outcome)
	assert.Empty(t, ans.Records)
	assert.Empty(t, f.redis.Keys())

	again := f.svc.Answer(ctx, "糖尿病有哪些症状")
	assert.Equal(t, OutcomeNoResults, again.Outcome)
}

func TestAnswer_GraphFailureIsNoResults(t *testing.T) {
	f := newFixture(t, nil)
	f.graph.SetQueryError(types.NewError(graph.ErrCodeGraphQueryFailed, "syntax error"))

	ans := f.svc.Answer(context.Background(), "高血压有哪些症状")
	assert.Equal(t, OutcomeNoResults, ans.Outcome)
	assert.Empty(t, f.redis.Keys())
}

func TestAnswer_Traced(t *testing.T) {
	f := newFixture(t, nil)

	ans := f.svc.Answer(context.Background(), "高血压有哪些症状")

	var found bool
	for _, s := range f.spans.GetSpans() {
		if s.Name != "medqa.qa.answer" {
			continue
		}
		found = true
		attrs := map[string]string{}
		for _, kv := range s.Attributes {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		assert.Equal(t, ans.RequestID, attrs["medqa.request_id"])
		assert.Equal(t, "answered", attrs["medqa.outcome"])
	}
	assert.True(t, found)
}

func TestAnswer_LogsCarryRequestID(t *testing.T) {
	f := newFixture(t, nil)
	var buf bytes.Buffer
	logger, err := observability.NewLogger(observability.LoggingConfig{Format: "json"}, &buf)
	require.NoError(t, err)
	f.svc.logger = logger

	ans := f.svc.Answer(context.Background(), "高血压有哪些症状")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "question answered", line["msg"])
	assert.Equal(t, ans.RequestID, line["request_id"])
	assert.NotEmpty(t, line["trace_id"])
}

func TestAnswer_Concurrent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 16)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = f.svc.Answer(ctx, "高血压有哪些症状").Outcome
		}(i)
	}
	wg.Wait()

	for _, o := range outcomes {
		assert.True(t, o.HasRecords(), o)
	}
}

func TestClassify(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.Classify(context.Background(), "糖尿病不能吃什么")
	assert.Equal(t, []intent.Intent{intent.DiseaseNotFood}, res.Intents)
	assert.Zero(t, f.graph.CallCount("Query"))
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.True(t, f.svc.Health(ctx).IsHealthy())

	f.graph.SetHealthStatus(types.Unhealthy("down"))
	assert.Equal(t, types.HealthStateUnhealthy, f.svc.Health(ctx).State)

	f.graph.SetHealthStatus(types.Healthy("up"))
	f.redis.SetError("ERR simulated outage")
	assert.Equal(t, types.HealthStateDegraded, f.svc.Health(ctx).State)
}

func TestNewService_RequiresComponents(t *testing.T) {
	_, err := NewService(Dependencies{})
	require.Error(t, err)
	assert.Equal(t, types.INIT_FAILED, types.CodeOf(err))
}

func TestWithCacheTTL(t *testing.T) {
	f := newFixture(t, nil)
	WithCacheTTL(time.Hour)(f.svc)

	f.svc.Answer(context.Background(), "高血压有哪些症状")
	assert.Equal(t, time.Hour, f.redis.TTL("medqa:"+cache.Key("高血压有哪些症状")))
}
