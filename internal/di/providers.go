package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"AMDScope/internal/domain/repository"
	"AMDScope/internal/handler/api"
	internalrepo "AMDScope/internal/repository"
	"AMDScope/internal/service/ratelimit"
	"AMDScope/internal/service/yahoo"
	"AMDScope/internal/services/cycles"
	"AMDScope/internal/services/indicators"
	"AMDScope/internal/services/regime"
	"AMDScope/internal/usecase"
	"AMDScope/pkg/cache"
	pkgch "AMDScope/pkg/clickhouse"
	"AMDScope/pkg/config"
	xhttp "AMDScope/pkg/http"
	pkgkafka "AMDScope/pkg/kafka"
	applogger "AMDScope/pkg/logger"
	"AMDScope/pkg/metrics"
	"AMDScope/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry with process and Go collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New(reg)
}

// ProvideCache builds the bar cache for the configured backend. Backend "none" yields nil.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxEntries))
	}
	redis := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "memory":
		return memory(), nil
	case "redis":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "layered":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MaxEntries),
			cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
		), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// ProvideClickHouseClient connects to ClickHouse when it is the bar source; otherwise nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Market.Source != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideBarSource selects Yahoo or ClickHouse and wraps it with the cache when one is configured.
func ProvideBarSource(
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
	c cache.Service,
	ch *pkgch.Client,
) (repository.BarSource, error) {
	var src repository.BarSource
	switch cfg.Market.Source {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse source without client")
		}
		chs, err := internalrepo.NewCHBarSource(ch.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table, log)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ch.InitSchema(ctx, append([]string{
			"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		}, chs.Schema()...)); err != nil {
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		src = chs
	default:
		src = yahoo.New(yahoo.Config{
			BaseURL:       cfg.Yahoo.BaseURL,
			UserAgent:     cfg.Yahoo.UserAgent,
			Timeout:       cfg.Yahoo.Timeout,
			RatePerMinute: cfg.Yahoo.RatePerMinute,
			MaxFailures:   cfg.Yahoo.Breaker.MaxFailures,
			OpenTimeout:   cfg.Yahoo.Breaker.OpenTimeout,
			Interval:      cfg.Yahoo.Breaker.Interval,
		}, log)
	}

	if c == nil {
		return src, nil
	}
	return internalrepo.NewCachedBarSource(src, c, cfg.Cache.TTL, cfg.Cache.LockTimeout, m, log), nil
}

// ProvideEventPublisher creates the Kafka regime event publisher, or a no-op when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config, log *applogger.Logger, reg *prometheus.Registry) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopEventPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, log), nil
}

// ProvideDetector creates the regime detector from config thresholds.
func ProvideDetector(cfg *config.Config) (*regime.Detector, error) {
	d := cfg.Detector
	return regime.NewDetector(regime.Params{
		VolSpikeMult:           d.VolSpikeMult,
		RangeSpikeMult:         d.RangeSpikeMult,
		LowRangeMult:           d.LowRangeMult,
		AccumulationWindowBars: d.AccumulationWindowBars,
		ReversalWindowBars:     d.ReversalWindowBars,
		ReversalFraction:       d.ReversalFraction,
		AccumulationFraction:   d.AccumulationFraction,
		FillLimitBars:          d.FillLimitBars,
	})
}

// ProvideAMDUseCase wires the pipeline use case.
func ProvideAMDUseCase(
	cfg *config.Config,
	src repository.BarSource,
	det *regime.Detector,
	pub repository.EventPublisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.AMDUseCase {
	return usecase.NewAMDUseCase(
		usecase.Config{
			DefaultSymbol: cfg.Market.Symbol,
			DefaultPeriod: cfg.Market.DefaultPeriod,
			Interval:      repository.NormalizeInterval(cfg.Market.Interval),
			Limit:         cfg.Market.Limit,
			FetchTimeout:  cfg.Market.FetchTimeout,
		},
		src,
		indicators.NewEngine(indicators.WithSessionLocation(cfg.SessionLocation())),
		det,
		cycles.NewSummarizer(),
		pub,
		m,
		log,
	)
}

// ProvideAMDHandler creates the HTTP handler and registers health checks.
func ProvideAMDHandler(
	cfg *config.Config,
	log *applogger.Logger,
	uc *usecase.AMDUseCase,
	src repository.BarSource,
	c cache.Service,
) *api.AMDEchoHandler {
	var rl *ratelimit.KeyedLimiter
	if cfg.Server.RateLimit.Enabled {
		rl = ratelimit.NewKeyed(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	}
	h := api.NewAMDEchoHandler(log, uc, rl)
	if hc, ok := src.(repository.HealthChecker); ok {
		h.AddHealthCheck("source", hc)
	}
	if hc, ok := c.(repository.HealthChecker); ok {
		h.AddHealthCheck("cache", hc)
	}
	return h
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, reg *prometheus.Registry, h *api.AMDEchoHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithLogger(log),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetrics(nil, ""))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	ch *pkgch.Client,
	c cache.Service,
	pub repository.EventPublisher,
) *server.App {
	res := []server.Resource{}
	if ch != nil {
		res = append(res, server.Resource{Name: "clickhouse", Close: ch.Close})
	}
	if c != nil {
		res = append(res, server.Resource{Name: "cache", Close: c.Close})
	}
	if pub != nil {
		res = append(res, server.Resource{Name: "kafka", Close: pub.Close})
	}
	return server.New(log, srv, cfg.Server.ShutdownTimeout, res...)
}
