package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/reksie/crosspay-cache/pkg/expirecache"
	"github.com/reksie/crosspay-cache/pkg/fxrates"
	"github.com/reksie/crosspay-cache/pkg/interfaces"
	"github.com/reksie/crosspay-cache/pkg/stores"
	"go.uber.org/zap"
)

// Configuration options
type Config struct {
	ListenAddr    string
	Backend       string // memory, redis or bounded
	RedisAddr     string
	BoundedKeys   int
	Namespace     string
	RateTTL       time.Duration
	HistoryTTL    time.Duration
	RatesURL      string
	StaticRates   bool
	ShutdownGrace time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseConfig(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("crosspay-cache", flag.ContinueOnError)
	fs.StringVar(&cfg.ListenAddr, "listen", envOr("CROSSPAY_LISTEN_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.Backend, "backend", envOr("CROSSPAY_CACHE_BACKEND", "memory"), "storage backend: memory, redis or bounded")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", envOr("CROSSPAY_REDIS_ADDR", "localhost:6379"), "Redis address for the redis backend")
	fs.IntVar(&cfg.BoundedKeys, "bounded-keys", envInt("CROSSPAY_BOUNDED_KEYS", 5000), "key quota for the bounded backend")
	fs.StringVar(&cfg.Namespace, "namespace", envOr("CROSSPAY_CACHE_NAMESPACE", expirecache.DefaultNamespace), "cache key namespace")
	fs.DurationVar(&cfg.RateTTL, "rate-ttl", envDuration("CROSSPAY_RATE_TTL", fxrates.DefaultRateTTL), "how long a fetched rate stays valid")
	fs.DurationVar(&cfg.HistoryTTL, "history-ttl", envDuration("CROSSPAY_HISTORY_TTL", fxrates.DefaultHistoryTTL), "how long a fetched rate history stays valid")
	fs.StringVar(&cfg.RatesURL, "rates-url", strings.TrimSpace(os.Getenv("CROSSPAY_RATES_URL")), "rates API base URL")
	fs.BoolVar(&cfg.StaticRates, "static-rates", false, "serve the built-in rate table instead of calling a rates API")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", 10*time.Second, "time allowed for in-flight requests on shutdown")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	switch cfg.Backend {
	case "memory", "redis", "bounded":
	default:
		return Config{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if cfg.RatesURL == "" {
		cfg.StaticRates = true
	}
	return cfg, nil
}

func newStore(ctx context.Context, cfg Config) (interfaces.Storage, error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return stores.CreateRedisStore("redis", client, stores.RedisStoreConfig{}), nil
	case "bounded":
		return stores.CreateBoundedStore("bounded", cfg.BoundedKeys), nil
	default:
		return stores.NewMemoryStore(ctx, "memory")
	}
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	cache := expirecache.New(store,
		expirecache.WithNamespace(cfg.Namespace),
		expirecache.WithLogger(logger.Named("cache")),
		expirecache.WithMetrics(expirecache.NewMetrics(registry)),
	)
	defer cache.Close()

	var provider fxrates.Provider
	if cfg.StaticRates {
		provider = fxrates.NewStaticProvider(fxrates.DefaultRates())
	} else {
		provider = fxrates.NewHTTPProvider(cfg.RatesURL, nil)
	}
	svc := fxrates.NewService(cache, provider,
		fxrates.WithRateTTL(cfg.RateTTL),
		fxrates.WithHistoryTTL(cfg.HistoryTTL),
		fxrates.WithLogger(logger.Named("fxrates")),
	)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(svc, registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("backend", cfg.Backend),
			zap.String("namespace", cfg.Namespace),
			zap.Bool("static_rates", cfg.StaticRates),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRouter(svc *fxrates.Service, registry *prometheus.Registry, logger *zap.Logger) http.Handler {
	h := &handlers{svc: svc, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rates", h.rate)
	mux.HandleFunc("GET /convert", h.convert)
	mux.HandleFunc("DELETE /rates", h.invalidate)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}
