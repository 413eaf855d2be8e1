package bootstrap

import (
	"context"
	"fmt"

	"tracker_server/adapter/out/persistence"
	"tracker_server/adapter/out/provider"
	"tracker_server/config"
	"tracker_server/core/port/out"
	"tracker_server/core/service/catalog"
	"tracker_server/core/service/movie"
	"tracker_server/core/service/safety"
	"tracker_server/infra/database"
	"tracker_server/pkg/cache"
	"tracker_server/pkg/logger"
	"tracker_server/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type Dependencies struct {
	Config *config.Config

	// Storage, nil when not configured
	Postgres *database.Postgres
	Redis    *redis.Client

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Provider
	TMDB *provider.TMDBAdapter

	// Content filter
	FilterConfig    *safety.Config
	KeywordRegistry *safety.Registry
	VerdictCache    *safety.VerdictCache
	Pipeline        *safety.Pipeline

	// Services
	CatalogService *catalog.Service
	MovieService   *movie.Service // nil without a database
	Revocations    out.TokenRevocationStore
}

// NewDependencies wires every component. The returned cleanup closes storage
// clients.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.New(deps.Registry)

	deps.TMDB = newTMDB(cfg, deps.Metrics)
	deps.FilterConfig = filterConfig(cfg)
	deps.KeywordRegistry = safety.NewRegistry(deps.TMDB, logger.Component("keyword-registry"))
	deps.VerdictCache = safety.NewVerdictCache(deps.FilterConfig.CacheTTL)
	deps.Metrics.WatchCacheSize(deps.VerdictCache.Len)

	certification := safety.NewCertificationResolver(deps.TMDB, deps.FilterConfig, logger.Component("certification"))
	keywords := safety.NewKeywordClassifier(deps.TMDB, deps.KeywordRegistry, deps.VerdictCache, deps.FilterConfig, logger.Component("keywords"))
	deps.Pipeline = safety.NewPipeline(deps.FilterConfig, certification, keywords,
		safety.WithRecorder(safety.VerdictRecorderFunc(func(v safety.Verdict) {
			deps.Metrics.RecordVerdict(string(v.Stage), string(v.Reason), v.Allowed)
		})),
		safety.WithLogger(logger.Component("pipeline")),
	)
	deps.CatalogService = catalog.NewService(deps.TMDB, deps.Pipeline, deps.KeywordRegistry, deps.FilterConfig.Strategy)

	if cfg.DatabaseURL != "" {
		pg, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.DefaultPostgresConfig())
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pg.Close)
		deps.Postgres = pg
		deps.MovieService = movie.NewService(persistence.NewMovieAdapter(pg.DB))
		logger.Info("PostgreSQL connected, movie lists enabled")
	} else {
		logger.Warn("DATABASE_URL not set, movie list routes disabled")
	}

	if cfg.RedisURL != "" {
		client, err := database.NewRedis(ctx, cfg.RedisURL, database.DefaultRedisConfig())
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.Redis = client
		deps.Revocations = cache.NewRedisTokenStore(client)
		logger.Info("Redis connected, token revocation enabled")
	}

	return deps, cleanup, nil
}

func newTMDB(cfg *config.Config, m *metrics.Metrics) *provider.TMDBAdapter {
	return provider.NewTMDBAdapter(&provider.TMDBConfig{
		APIKey:            cfg.TMDBAPIKey,
		BaseURL:           cfg.TMDBBaseURL,
		RequestsPerSecond: float64(cfg.TMDBRequestsPerSecond),
		Burst:             cfg.TMDBBurst,
		Timeout:           cfg.ClassifyTimeout,
	}, logger.Component("tmdb"), provider.WithObserver(m))
}

func filterConfig(cfg *config.Config) *safety.Config {
	return &safety.Config{
		Strategy:              cfg.FilterStrategy,
		Region:                cfg.CertificationRegion,
		AllowedCertifications: cfg.AllowedCertifications,
		KeywordFailurePolicy:  cfg.KeywordFailurePolicy,
		CallTimeout:           cfg.ClassifyTimeout,
		MaxConcurrent:         cfg.ClassifyMaxConcurrent,
		CacheTTL:              cfg.KeywordCacheTTL,
	}
}

// ResolveKeywords resolves the configured unsafe phrases once and returns the
// provider keyword ids per phrase.
func ResolveKeywords(ctx context.Context, cfg *config.Config) (map[string][]int64, error) {
	tmdb := newTMDB(cfg, metrics.New(prometheus.NewRegistry()))
	registry := safety.NewRegistry(tmdb, logger.Component("keyword-registry"))
	if _, err := registry.Initialize(ctx, cfg.UnsafeKeywords); err != nil {
		return nil, err
	}
	return registry.Resolved(), nil
}
