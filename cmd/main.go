package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/edustream/internal/adapters/http/api"
	"github.com/okian/edustream/internal/adapters/http/swagger"
	"github.com/okian/edustream/internal/adapters/repository"
	"github.com/okian/edustream/internal/adapters/repository/postgres"
	app "github.com/okian/edustream/internal/app"
	"github.com/okian/edustream/internal/config"
	"github.com/okian/edustream/internal/domain/dedupe"
	"github.com/okian/edustream/pkg/logger"
	"github.com/okian/edustream/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "edustream exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := configureLogger(ctx, cfg)

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	deduper, err := buildDeduper(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return err
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxWatchlistLimit(cfg.MaxWatchlistLimit),
	}
	if deduper != nil {
		opts = append(opts, app.WithDeduper(deduper))
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	if cfg.SeedSampleData {
		n, err := svc.SeedSampleData(ctx)
		if err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
		if n > 0 {
			log.Info(ctx, "seeded sample students", logger.Int("count", n))
		}
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(svc, cfg.CORSOrigin),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("storage", cfg.Storage),
			logger.Bool("redis_dedupe", deduper != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// configureLogger applies level and format, falling back to info/text on bad input.
func configureLogger(ctx context.Context, cfg *config.Config) logger.Logger {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		_ = logger.SetFormat(logger.FormatText)
		logger.Get().Warn(ctx, "invalid log_format; falling back to text", logger.String("log_format", cfg.LogFormat))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
	}
	return logger.Get()
}

// buildStore selects the record store named by cfg.Storage.
func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		st, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

// buildDeduper returns a Redis deduper when RedisAddr is set and nil
// otherwise, leaving the service on its in-memory default.
func buildDeduper(ctx context.Context, cfg *config.Config) (dedupe.Deduper, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	d, err := dedupe.NewRedisDeduper(ctx, client,
		dedupe.WithTTL(time.Duration(cfg.DedupeTTLHours)*time.Hour),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis deduper: %w", err)
	}
	return d, nil
}

// newHandler mounts the API and docs routes behind CORS.
func newHandler(svc *app.Service, corsOrigin string) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc).Register(mux)
	return api.CORS(corsOrigin, mux)
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var avgPauseMs float64
	if m.NumGC > 0 {
		avgPauseMs = float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
	}
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine(), avgPauseMs)
}
