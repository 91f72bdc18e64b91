package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/medqa/internal/cache"
	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/intent"
	"github.com/zero-day-ai/medqa/internal/kg"
	"github.com/zero-day-ai/medqa/internal/lexicon"
	"github.com/zero-day-ai/medqa/internal/matcher"
	"github.com/zero-day-ai/medqa/internal/metrics"
	"github.com/zero-day-ai/medqa/internal/observability"
	"github.com/zero-day-ai/medqa/internal/qa"
	"github.com/zero-day-ai/medqa/internal/query"
	"github.com/zero-day-ai/medqa/internal/types"
)

// component selects the optional parts of an app.
type component uint8

const (
	withGraph component = 1 << iota
	withCache
)

// app holds the components built for one command.
type app struct {
	logger   *slog.Logger
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	metrics  *metrics.Metrics

	classifier *intent.Classifier
	fallback   *intent.FallbackResolver

	client   graph.GraphClient
	executor *graph.Executor
	explorer *kg.Explorer
	cache    *cache.ResultCache
	service  *qa.Service

	stopMetrics func()
	metricsDone chan error
}

// newApp builds the pipeline from the loaded configuration. Lexicon, template
// and graph connection failures are fatal.
func (c *cli) newApp(ctx context.Context, cmd *cobra.Command, need component) (_ *app, err error) {
	cfg := c.cfg
	a := &app{}
	defer func() {
		if err != nil {
			a.close(context.WithoutCancel(ctx))
		}
	}()

	a.logger, err = observability.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	a.provider, err = observability.InitTracing(ctx, cfg.Tracing, observability.WithWriter(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}
	a.tracer = a.provider.Tracer("github.com/zero-day-ai/medqa")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(reg)

	lex, err := lexicon.LoadDir(cfg.Lexicon.Dir)
	if err != nil {
		return nil, err
	}
	m, err := matcher.New(lex)
	if err != nil {
		return nil, err
	}
	a.classifier, err = intent.NewClassifier(m)
	if err != nil {
		return nil, err
	}
	a.logger.DebugContext(ctx, "lexicon loaded", "dir", cfg.Lexicon.Dir, "terms", lex.Len())

	var fb intent.Fallback
	if cfg.Classifier.FallbackURL != "" {
		fb = intent.NewHTTPFallback(cfg.Classifier.FallbackURL, cfg.Classifier.FallbackTimeout)
	}
	a.fallback = intent.NewFallbackResolver(fb, cfg.Classifier.MinConfidence, a.logger)

	if need&withCache != 0 {
		var shared cache.Tier
		if cfg.Cache.Redis.Enabled {
			shared = cache.NewRedisTier(cfg.Cache.Redis.TierConfig())
		}
		a.cache = cache.New(cfg.Cache.ResultCacheConfig(), cache.NewLocalTier(cfg.Cache.LocalCapacity),
			shared, a.logger, cache.WithMetrics(a.metrics))
	}

	if need&withGraph == 0 {
		return a, nil
	}

	catalog, err := loadCatalog(cfg.Templates.Path)
	if err != nil {
		return nil, err
	}

	a.client, err = c.connectGraph(ctx, cfg.Graph.ClientConfig())
	if err != nil {
		return nil, err
	}
	a.executor = graph.NewExecutor(a.client, cfg.Retry.Policy(), a.logger,
		graph.WithTracer(a.tracer), graph.WithMetrics(a.metrics))
	a.explorer = kg.NewExplorer(a.executor, a.logger)

	a.service, err = qa.NewService(qa.Dependencies{
		Classifier: a.classifier,
		Generator:  query.NewGenerator(catalog),
		Executor:   a.executor,
		Cache:      a.cache,
		Fallback:   a.fallback,
		Logger:     a.logger,
		Metrics:    a.metrics,
		Tracer:     a.tracer,
	}, qa.WithCacheTTL(cfg.Cache.TTL))
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		a.serveMetrics(ctx, cfg.Metrics.Addr, reg)
	}
	return a, nil
}

func loadCatalog(path string) (*query.Catalog, error) {
	if path == "" {
		return query.DefaultCatalog()
	}
	return query.LoadCatalog(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func (a *app) serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	ctx, cancel := context.WithCancel(ctx)
	srv := metrics.NewServer(addr, reg, a.health, a.logger)
	a.stopMetrics = cancel
	a.metricsDone = make(chan error, 1)
	go func() {
		a.metricsDone <- srv.Serve(ctx)
	}()
}

func (a *app) health(ctx context.Context) types.HealthStatus {
	if a.service != nil {
		return a.service.Health(ctx)
	}
	if a.cache != nil {
		return a.cache.Health(ctx)
	}
	return types.Healthy("no dependencies")
}

// close releases every component that was built.
func (a *app) close(ctx context.Context) {
	if a.stopMetrics != nil {
		a.stopMetrics()
		if err := <-a.metricsDone; err != nil {
			a.logger.WarnContext(ctx, "metrics server stopped with error", "error", err)
		}
	}
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.client != nil {
		errs = append(errs, a.client.Close(ctx))
	}
	errs = append(errs, observability.ShutdownTracing(ctx, a.provider))
	if err := errors.Join(errs...); err != nil && a.logger != nil {
		a.logger.WarnContext(ctx, "shutdown incomplete", "error", err)
	}
}
