// gomtproto is an example daemon that keeps a sender pool connected to
// Telegram's datacenters and exposes its health and RPC metrics over
// Prometheus. It owns no application schema: callers wanting to issue
// real RPCs embed internal/pool directly, the way this binary does for
// a single keepalive-only connection to the account's home datacenter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/gomtproto/internal/mtconfig"
	"github.com/dantte-lp/gomtproto/internal/mtmetrics"
	"github.com/dantte-lp/gomtproto/internal/pool"
	"github.com/dantte-lp/gomtproto/internal/sessionstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	homeDC := flag.Int("home-dc", 2, "datacenter id to treat as the account's home DC")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(mtconfig.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("gomtproto starting",
		slog.Int("home_dc", *homeDC),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := mtmetrics.NewCollector(reg)

	store := sessionstore.NewMemoryStore()
	store.SetHomeDCID(int32(*homeDC))

	opts := cfg.PoolOptions()
	opts.Logger = logger
	p := pool.New(store, opts)
	defer p.Quit()

	if err := runServers(cfg, p, collector, store, reg, logger, *homeDC); err != nil {
		logger.Error("gomtproto exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("gomtproto stopped")
	return 0
}

func runServers(
	cfg *mtconfig.Config,
	p *pool.Pool,
	collector *mtmetrics.Collector,
	store sessionstore.Store,
	reg *prometheus.Registry,
	logger *slog.Logger,
	homeDC int,
) error {
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	lc := net.ListenConfig{}
	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, &lc, metricsSrv, cfg.Metrics.Addr)
	})

	g.Go(func() error {
		return keepalive(gCtx, p, collector, int32(homeDC), logger)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, p, logger, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// keepalive touches the home datacenter's sender every tick so that a
// freshly started pool dials and handshakes promptly instead of waiting
// for the first real Invoke call, and reports the live sender count.
func keepalive(ctx context.Context, p *pool.Pool, collector *mtmetrics.Collector, homeDC int32, logger *slog.Logger) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	if _, err := p.BorrowForDownload(ctx, homeDC); err != nil {
		logger.Warn("initial connect to home datacenter failed", slog.String("error", err.Error()))
	} else {
		collector.RegisterSender(homeDC)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := p.BorrowForDownload(ctx, homeDC); err != nil {
				logger.Warn("home datacenter unreachable", slog.String("error", err.Error()))
			}
		}
	}
}

func gracefulShutdown(ctx context.Context, p *pool.Pool, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")

	if err := p.Quit(); err != nil {
		logger.Warn("pool shutdown returned an error", slog.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newMetricsServer(cfg mtconfig.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loadConfig(path string) (*mtconfig.Config, error) {
	if path != "" {
		cfg, err := mtconfig.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return mtconfig.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg mtconfig.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
