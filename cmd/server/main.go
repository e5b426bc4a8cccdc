package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"setforge/internal/emitter"
	"setforge/internal/emitter/handler"
	"setforge/internal/emitter/metrics"
	"setforge/internal/emitter/store/resultcache"
	"setforge/internal/platform/config"
	"setforge/internal/platform/httpserver"
	"setforge/internal/platform/logger"
	platformredis "setforge/internal/platform/redis"
	"setforge/internal/set"
	"setforge/internal/transmit"
	"setforge/pkg/platform/deliverylog"
	dlkafka "setforge/pkg/platform/deliverylog/kafka"
	dlmemory "setforge/pkg/platform/deliverylog/store/memory"
	dlpostgres "setforge/pkg/platform/deliverylog/store/postgres"
	dlworker "setforge/pkg/platform/deliverylog/worker"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Emission logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		store deliverylog.Store = dlmemory.NewInMemoryStore(0)
		db    *sql.DB
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Error("open postgres failed", "error", err.Error())
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err.Error())
			os.Exit(1)
		}
		store = dlpostgres.New(db)
	}

	var sink deliverylog.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := dlkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka client failed", "error", err.Error())
			os.Exit(1)
		}
		defer kp.Close()
		sink = kp
	}

	publisher := deliverylog.NewPublisher(256)
	logWorker := dlworker.New(store, sink, publisher.Inbox(), log)

	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err.Error())
		os.Exit(1)
	}
	var cache resultcache.Store = resultcache.NewInMemoryStore()
	if rdb != nil {
		cache = resultcache.NewRedisStore(rdb.Client)
		defer rdb.Close()
	}

	svc := emitter.New(
		emitter.EnvProvider{},
		set.NewBuilder(set.Defaults{}),
		transmit.New(nil),
		publisher,
		m,
	)

	root := chi.NewRouter()
	root.Handle("/metrics", promhttp.Handler())
	root.Get("/healthz", healthz(db, rdb))
	handler.New(svc, log, cache, cfg.IdempotencyTTL).Register(root)

	srv := httpserver.New(cfg.Addr, root)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return logWorker.Run(ctx)
	})

	g.Go(func() error {
		log.Info("starting setforge", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("setforge stopped")
}

// healthz reports liveness plus the health of configured backends.
func healthz(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		checks := map[string]string{"service": "ok"}

		if db != nil {
			checks["postgres"] = "ok"
			if err := db.PingContext(r.Context()); err != nil {
				checks["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Health(r.Context()); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(checks)
	}
}
