package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"listsnap/internal/ocr"
	"listsnap/internal/platform/config"
	"listsnap/internal/platform/database"
	"listsnap/internal/platform/httpserver"
	"listsnap/internal/platform/logger"
	"listsnap/internal/platform/metrics"
	"listsnap/internal/platform/redis"
	"listsnap/internal/shopping/changes"
	"listsnap/internal/shopping/handler"
	"listsnap/internal/shopping/live"
	"listsnap/internal/shopping/orchestrator"
	"listsnap/internal/shopping/repository"
	"listsnap/internal/shopping/scan"
	"listsnap/internal/shopping/store"
	"listsnap/pkg/platform/circuit"
	"listsnap/pkg/platform/httputil"
	"listsnap/pkg/platform/middleware/requestlog"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "listsnap:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	dialect, _ := store.DialectByName(cfg.Database.Driver)

	hub := live.NewHub(live.WithLogger(log))
	db := store.New(sqlDB, dialect,
		store.WithLogger(log),
		store.WithTxTimeout(cfg.Database.TxTimeout),
		store.WithCommitHook(hub.Notify),
	)
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var bus *changes.RedisBus
	if redisClient != nil {
		defer redisClient.Close()
		bus = changes.NewRedisBus(redisClient.Client, hub, changes.WithLogger(log))
		db.AddCommitHook(bus.Publish)
	}

	engine, closeEngine, err := newEngine(ctx, cfg.OCR, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	photos := repository.NewPhotoRepository(db, hub, m, repository.WithLogger(log))
	lists := repository.NewListRepository(db, hub, repository.WithLogger(log))
	items := repository.NewItemRepository(db, hub, repository.WithLogger(log))
	orch := orchestrator.New(db, orchestrator.WithLogger(log), orchestrator.WithMetrics(m))
	scanner := scan.New(photos, engine, orch, scan.WithLogger(log))

	h := handler.New(photos, lists, items, orch, scanner, handler.WithLogger(log), handler.WithMetrics(m))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestlog.Middleware(log))
	r.Get("/healthz", healthz(db, redisClient))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	h.Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting listsnap", "addr", cfg.Addr, "db", dialect.Name, "ocr", cfg.OCR.Engine)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if bus != nil {
		g.Go(func() error { return bus.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newEngine(ctx context.Context, cfg config.OCRConfig, log *slog.Logger) (ocr.Engine, func(), error) {
	if cfg.Engine != config.OCREngineVertex {
		return ocr.Disabled{}, func() {}, nil
	}
	engine, err := ocr.NewVertexEngine(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	breaker := circuit.New("ocr.vertex", circuit.WithFailureThreshold(5), circuit.WithCooldown(time.Minute))
	return ocr.NewGuarded(engine, breaker, log), func() { _ = engine.Close() }, nil
}

func healthz(db *store.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{"database": "ok"}
		code := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Health(ctx); err != nil {
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
