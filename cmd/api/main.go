package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-engine/internal/checkout"
	"github.com/noah-isme/checkout-engine/internal/config"
	"github.com/noah-isme/checkout-engine/internal/geo"
	"github.com/noah-isme/checkout-engine/internal/health"
	"github.com/noah-isme/checkout-engine/internal/logistics"
	"github.com/noah-isme/checkout-engine/internal/obs"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/queue"
	"github.com/noah-isme/checkout-engine/internal/ratelimit"
	"github.com/noah-isme/checkout-engine/internal/repo"
	"github.com/noah-isme/checkout-engine/internal/risk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "checkout_engine")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "checkout-engine",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	probes := map[string]health.Probe{}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		if tracingEnabled {
			if err := redisotel.InstrumentTracing(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis tracing")
			}
		}
		if metricsEnabled {
			if err := redisotel.InstrumentMetrics(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis metrics")
			}
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse database config")
		}
		poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "checkout-engine"
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("ping database")
		}
		probes["db"] = func(ctx context.Context) error {
			return pool.Ping(ctx)
		}
	}

	validate := validator.New()

	geocoder := geo.NewStaticGeocoder(nil)
	resolver := logistics.NewResolver(logistics.Config{
		PerKmRate:          cfg.RatePerKm,
		Flagfall:           cfg.BaseShippingFee,
		FuelSurchargeIndex: cfg.FuelSurchargePct,
		ColdChainPremium:   cfg.ColdChainPremium,
		VoidFillFraction:   cfg.VoidFillRatio,
		MinShippingCost:    cfg.MinShippingCost,
		AvgSpeedKmh:        cfg.AvgFleetSpeedKmh,
		HandlingMinutes:    cfg.HandlingMinutes,
		MaxBoxes:           cfg.MaxBoxesPerOrder,
	}, nil, nil)

	pricer := pricing.NewEngine(pricing.Config{
		BalanceWeight:         cfg.BalanceWeight,
		ReferralEntropyWeight: cfg.ReferralEntropyWeight,
		MaxDiscount:           cfg.MaxDiscount,
		MarginFloorRatio:      cfg.MarginFloorRatio,
		RoundingUnit:          cfg.PriceRoundingUnit,
		CacheTTL:              cfg.TierCacheTTL,
		CacheMaxEntries:       cfg.TierCacheMaxEntries,
	})

	riskConfig := risk.DefaultConfig()
	riskConfig.VelocityWindow = cfg.VelocityWindow
	riskConfig.VelocityThreshold = cfg.VelocityThreshold
	riskConfig.ZScoreCriticalLimit = cfg.ZScoreLimit
	riskConfig.EntropyMinThreshold = cfg.EntropyMinThreshold
	riskConfig.HighValueTrigger = cfg.HighValueLimit

	var ledger risk.Ledger
	var memoryLedger *risk.MemoryLedger
	if redisClient != nil {
		ledger = risk.RedisLedger{Client: redisClient, Prefix: "risk:velocity:", Window: cfg.VelocityWindow}
	} else {
		memoryLedger = risk.NewMemoryLedger(cfg.VelocityWindow)
		ledger = memoryLedger
	}

	var history risk.HistoryProvider
	var recorder risk.HistoryRecorder
	if pool != nil {
		orders := repo.OrderHistory{Pool: pool, Keep: cfg.HistoryKeep}
		history, recorder = orders, orders
	} else {
		mem := risk.NewMemoryHistory(cfg.HistoryKeep)
		history, recorder = mem, mem
	}

	scorer := risk.NewScorer(risk.ScorerConfig{
		Config:  riskConfig,
		Ledger:  ledger,
		History: history,
		Logger:  &logger,
	})

	var reviews queue.Enqueuer = queue.NopEnqueuer{}
	if redisClient != nil {
		taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisClient.Options().Addr, Password: redisClient.Options().Password, DB: redisClient.Options().DB})
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close task client")
			}
		}()
		reviews = queue.Client{Tasks: taskClient}
	}

	checkoutSvc := &checkout.Service{
		Resolver: resolver,
		Geocoder: geocoder,
		Pricer:   pricer,
		Scorer:   scorer,
		Recorder: recorder,
		Reviews:  reviews,
		Logger:   logger,
	}

	logisticsHandler := logistics.NewHandler(logistics.HandlerConfig{Resolver: resolver, Geocoder: geocoder, Validate: validate})
	pricingHandler := pricing.NewHandler(pricing.HandlerConfig{Engine: pricer, Validate: validate})
	riskHandler := risk.NewHandler(risk.HandlerConfig{Scorer: scorer, Validate: validate})
	checkoutHandler := checkout.NewHandler(checkout.HandlerConfig{Service: checkoutSvc, Validate: validate})

	limiterStore, err := ratelimit.NewStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.New(limiterStore, cfg.RateLimitMax, cfg.RateLimitWindow),
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter degraded")
		},
	}

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	go runSweeps(sweepCtx, logger, pricer, memoryLedger)

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Probes:  probes,
		Timeout: envDurationMillis("HEALTH_READY_TIMEOUT_MS", 500),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limiter.Middleware)
		v.Post("/logistics/quote", logisticsHandler.Quote)
		v.Post("/pricing/quote", pricingHandler.Quote)
		v.Get("/pricing/tier", pricingHandler.Tier)
		v.Post("/risk/assess", riskHandler.Assess)
		v.Post("/checkout/evaluate", checkoutHandler.Evaluate)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-stopCtx.Done()
	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	logger.Info().Msg("server shutdown complete")
}

// runSweeps evicts expired tier cache entries and stale velocity buckets.
func runSweeps(ctx context.Context, logger zerolog.Logger, pricer *pricing.Engine, ledger *risk.MemoryLedger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if dropped := pricer.Sweep(); dropped > 0 {
				logger.Debug().Int("dropped", dropped).Msg("tier cache sweep")
			}
			if ledger != nil {
				ledger.Sweep(now)
			}
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
