package di

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"SwapGate/internal/domain/repository"
	api "SwapGate/internal/handler/api"
	mid "SwapGate/internal/middleware"
	internalrepo "SwapGate/internal/repository"
	"SwapGate/internal/service/ratelimit"
	"SwapGate/internal/usecase"
	"SwapGate/internal/validation"
	pkgcache "SwapGate/pkg/cache"
	pkgch "SwapGate/pkg/clickhouse"
	"SwapGate/pkg/config"
	pkgkafka "SwapGate/pkg/kafka"
	applogger "SwapGate/pkg/logger"
	"SwapGate/pkg/metrics"
	"SwapGate/pkg/server"
)

// ProvideLogger creates the application logger. Production runs JSON, anything
// else gets the console writer.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCatalog builds the static threat pattern registry.
func ProvideCatalog() *validation.Catalog {
	return validation.NewCatalog()
}

// ProvideReplayDetector creates the shared replay detector.
func ProvideReplayDetector(cfg *config.Config) *validation.ReplayDetector {
	return validation.NewReplayDetector(cfg.Threat.ReplayWindow)
}

// ProvideThreatFilter creates the L1/L3 threat filter.
func ProvideThreatFilter(cfg *config.Config, catalog *validation.Catalog, replay *validation.ReplayDetector) (*validation.ThreatFilter, error) {
	var opts []validation.FilterOption
	if cfg.Threat.MinAmount != "" && cfg.Threat.MaxAmount != "" {
		min, err := decimal.NewFromString(cfg.Threat.MinAmount)
		if err != nil {
			return nil, fmt.Errorf("threat.min_amount: %w", err)
		}
		max, err := decimal.NewFromString(cfg.Threat.MaxAmount)
		if err != nil {
			return nil, fmt.Errorf("threat.max_amount: %w", err)
		}
		opts = append(opts, validation.WithAmountBounds(min, max))
	}
	return validation.NewThreatFilter(catalog, replay, opts...), nil
}

// ProvideGateEngine compiles the policy gates, including the data-driven
// extension gates from YAML. Bad gate configuration fails startup.
func ProvideGateEngine(cfg *config.Config) (*validation.GateEngine, error) {
	var opts []validation.GateOption
	if cfg.Policy.MaxSlippage != "" {
		max, err := decimal.NewFromString(cfg.Policy.MaxSlippage)
		if err != nil {
			return nil, fmt.Errorf("policy.max_slippage: %w", err)
		}
		opts = append(opts, validation.WithMaxSlippage(max))
	}
	if cfg.Policy.MinConfidence > 0 {
		opts = append(opts, validation.WithMinConfidence(cfg.Policy.MinConfidence))
	}
	if len(cfg.Policy.ApprovedTokens) > 0 {
		opts = append(opts, validation.WithApprovedTokens(cfg.Policy.ApprovedTokens))
	}
	for _, gc := range cfg.Policy.ExtensionGates {
		g, err := validation.CompileGate(gc.ID, gc.Description, gc.Operator, gc.Field, gc.RejectionCode, gc.Threshold, gc.ThresholdSet)
		if err != nil {
			return nil, fmt.Errorf("extension gate %q: %w", gc.ID, err)
		}
		opts = append(opts, validation.WithExtensionGates(g))
	}
	return validation.NewGateEngine(opts...), nil
}

// ProvidePipeline wires the validation layers together.
func ProvidePipeline(filter *validation.ThreatFilter, gates *validation.GateEngine, cfg *config.Config) *validation.Pipeline {
	return validation.NewPipeline(filter, gates, cfg.Policy.ApprovedTokens)
}

// ProvideProofIssuer creates the custody proof issuer.
func ProvideProofIssuer(cfg *config.Config) *validation.ProofIssuer {
	var opts []validation.IssuerOption
	if cfg.Custody.ProofTTL > 0 {
		opts = append(opts, validation.WithProofTTL(cfg.Custody.ProofTTL))
	}
	return validation.NewProofIssuer(opts...)
}

// ProvideClickHouseAuditStore creates the queryable audit store, or nil when
// ClickHouse auditing is disabled.
func ProvideClickHouseAuditStore(cfg *config.Config, l *applogger.Logger) (*internalrepo.ClickHouseAuditStore, error) {
	if !cfg.Audit.ClickHouse.Enabled {
		return nil, nil
	}
	ch := cfg.Audit.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewClickHouseAuditStore(client)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideAuditPipeline assembles the async audit fan-out over the enabled
// sinks. When Kafka auditing is on, aggregated error logs ride the same
// producer on a sibling topic.
func ProvideAuditPipeline(
	cfg *config.Config,
	m repository.Metrics,
	chStore *internalrepo.ClickHouseAuditStore,
	l *applogger.Logger,
) (*mid.AuditPipeline, error) {
	var sinks []repository.AuditSink

	if cfg.Audit.Kafka.Enabled {
		k := cfg.Audit.Kafka
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(k.Brokers),
			pkgkafka.WithCompression(k.Compression),
			pkgkafka.WithRequiredAcks(k.RequiredAcks),
			pkgkafka.WithBatchSize(k.BatchSize),
			pkgkafka.WithBatchBytes(k.BatchBytes),
			pkgkafka.WithBatchTimeout(k.Linger),
			pkgkafka.WithTimeouts(k.WriteTimeout, k.ReadTimeout),
			pkgkafka.WithMaxAttempts(k.MaxAttempts),
			pkgkafka.WithAsync(k.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		sink := internalrepo.NewKafkaAuditSink(producer, k.Topic)
		sinks = append(sinks, sink)

		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          k.Topic + ".logs",
			Publisher:      sink,
		})
	}

	if chStore != nil {
		sinks = append(sinks, chStore)
	}

	var opts []mid.PipelineOption
	if cfg.Audit.BufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Audit.BufferSize))
	}
	return mid.NewAuditPipeline(m, sinks, opts...), nil
}

// ProvideDecisionCache creates the fingerprint-keyed decision cache, layered
// over Redis when configured and in-memory otherwise.
func ProvideDecisionCache(cfg *config.Config) (repository.DecisionCache, error) {
	var svc pkgcache.Service
	if cfg.Cache.Redis.Enabled {
		r := cfg.Cache.Redis
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(r.Host),
			pkgcache.WithRedisPort(r.Port),
			pkgcache.WithRedisPassword(r.Password),
			pkgcache.WithRedisDB(r.DB),
			pkgcache.WithRedisPrefix(r.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = pkgcache.NewLayeredCache(redisCache)
	} else {
		svc = pkgcache.NewMemoryCache()
	}
	return internalrepo.NewCachedDecisionStore(svc, cfg.Cache.TTL), nil
}

// ProvideThreatStream creates the WebSocket threat feed hub.
func ProvideThreatStream(l *applogger.Logger) *api.ThreatStreamHandler {
	return api.NewThreatStreamHandler(l)
}

// ProvideQuoteValidator creates the quote validation use case.
func ProvideQuoteValidator(
	pipeline *validation.Pipeline,
	replay *validation.ReplayDetector,
	audit *mid.AuditPipeline,
	cache repository.DecisionCache,
	m repository.Metrics,
	stream *api.ThreatStreamHandler,
	l *applogger.Logger,
) *usecase.QuoteValidator {
	return usecase.NewQuoteValidator(pipeline, replay, audit, cache, m, stream, l)
}

// ProvidePlanReleaser creates the plan release use case.
func ProvidePlanReleaser(
	pipeline *validation.Pipeline,
	issuer *validation.ProofIssuer,
	audit *mid.AuditPipeline,
	m repository.Metrics,
	stream *api.ThreatStreamHandler,
	l *applogger.Logger,
) *usecase.PlanReleaser {
	return usecase.NewPlanReleaser(pipeline, issuer, audit, m, stream, l)
}

// ProvideAuditQuery creates the audit read model. Without a ClickHouse store
// the query API reports itself unavailable.
func ProvideAuditQuery(chStore *internalrepo.ClickHouseAuditStore) *usecase.AuditQuery {
	if chStore == nil {
		return usecase.NewAuditQuery(nil)
	}
	return usecase.NewAuditQuery(chStore)
}

// ProvideGateway creates the HTTP API handler.
func ProvideGateway(
	l *applogger.Logger,
	quotes *usecase.QuoteValidator,
	plans *usecase.PlanReleaser,
	audit *usecase.AuditQuery,
	catalog *validation.Catalog,
) *api.GatewayHandler {
	return api.NewGatewayHandler(l, quotes, plans, audit, catalog)
}

// ProvideLimiter creates the per-caller rate limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	gateway *api.GatewayHandler,
	stream *api.ThreatStreamHandler,
	limiter *ratelimit.Limiter,
	audit *mid.AuditPipeline,
	cache repository.DecisionCache,
) *server.App {
	return server.New(cfg, l, gateway, stream, limiter, audit, cache)
}
