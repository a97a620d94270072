package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"request-guard/internal/config"
	"request-guard/internal/logging"
	"request-guard/middleware/guard"
	"request-guard/middleware/guard/domain"
	"request-guard/middleware/guard/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// runtime reúne o que os dois subcomandos compartilham.
type runtime struct {
	cfg     config.Config
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
	rdb     *redis.Client
	guard   *guard.Guard
	metrics http.Handler
}

func newRuntime(parent context.Context, cfg config.Config) (*runtime, error) {
	if parent == nil {
		parent = context.Background()
	}
	logger, err := logging.New(cfg.Mode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	rt := &runtime{cfg: cfg, ctx: ctx, cancel: cancel, logger: logger}

	if cfg.NeedsRedis() {
		rt.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rt.rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	var store domain.WindowStore
	switch cfg.Store {
	case "redis":
		store = infra.NewRedisWindowStore(rt.rdb, infra.WithWindowPrefix(cfg.RedisPrefix))
	default:
		mem := infra.NewMemoryWindowStore()
		if cfg.JanitorEvery > 0 {
			infra.StartJanitor(ctx, mem, cfg.JanitorEvery, cfg.Window)
		}
		store = mem
	}

	stats, err := rt.statsStore()
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.guard = guard.New(guard.Options{
		Store:               store,
		Stats:               stats,
		Logger:              logger,
		Mode:                cfg.Mode,
		Window:              cfg.Window,
		MaxRequests:         cfg.MaxRequests,
		SweepProbability:    cfg.SweepProbability,
		KeyFn:               guard.DefaultKeyFunc(cfg.KeyHeader, cfg.UseRemoteAddr),
		AddRateLimitHeaders: cfg.RateHeaders,
	})

	logger.Info("guard configured",
		zap.Duration("window", cfg.Window), zap.Int("max_requests", cfg.MaxRequests),
		zap.String("store", cfg.Store), zap.String("stats", cfg.Stats),
		zap.Duration("janitor_every", cfg.JanitorEvery), zap.Bool("rate_headers", cfg.RateHeaders),
		zap.Int("max_inflight", cfg.MaxInflight))
	return rt, nil
}

func (rt *runtime) statsStore() (domain.StatsStore, error) {
	switch rt.cfg.Stats {
	case "none":
		return nil, nil
	case "memory":
		return infra.NewMemoryStatsStore(infra.WithTrackKeys(rt.cfg.StatsTrackKeys)), nil
	case "redis":
		return infra.NewRedisStatsStore(rt.rdb,
			infra.WithStatsPrefix(rt.cfg.StatsPrefix),
			infra.WithStatsTTL(rt.cfg.StatsTTL),
			infra.WithStatsBucket(rt.cfg.StatsBucket),
			infra.WithStatsTrackKeys(rt.cfg.StatsTrackKeys),
		), nil
	case "prometheus":
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rt.metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		return infra.NewPrometheusStatsStore(reg), nil
	}
	return nil, fmt.Errorf("unknown stats backend %q", rt.cfg.Stats)
}

// listen serve h até SIGINT/SIGTERM e então faz shutdown gracioso.
func (rt *runtime) listen(h http.Handler) error {
	srv := &http.Server{
		Addr:              rt.cfg.ListenAddr,
		Handler:           guard.InflightLimit(rt.cfg.MaxInflight, rt.cfg.InflightWait, rt.logger)(h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-rt.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	rt.logger.Info("server stopped")
	return nil
}

func (rt *runtime) Close() {
	rt.cancel()
	if rt.rdb != nil {
		_ = rt.rdb.Close()
	}
	_ = rt.logger.Sync()
}
