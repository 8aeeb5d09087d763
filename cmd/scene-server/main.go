package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/beamscene/core"
	"github.com/signalsfoundry/beamscene/internal/config"
	"github.com/signalsfoundry/beamscene/internal/logging"
	"github.com/signalsfoundry/beamscene/internal/observability"
	"github.com/signalsfoundry/beamscene/internal/server"
	"github.com/signalsfoundry/beamscene/kb"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	metricsAddr := flag.String("metrics-addr", "", "separate Prometheus listen address; empty serves /metrics on -addr")
	positions := flag.String("positions", "", "position records file (overrides scene.positions)")
	beams := flag.String("beams", "", "beam assignment file (overrides scene.beams)")
	flag.Parse()

	cfg, err := config.Load(viper.New(), *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	if *positions != "" {
		cfg.Scene.Positions = *positions
	}
	if *beams != "" {
		cfg.Scene.Beams = *beams
	}

	log := logging.New(cfg.Logging())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, cfg.TracingOptions(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		log.Error(ctx, "failed to listen", logging.String("addr", cfg.Server.Addr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis, prometheus.DefaultRegisterer); err != nil {
		log.Error(ctx, "scene server failed", logging.Err(err))
		os.Exit(1)
	}
}

// run loads the scene once, then serves it on lis until ctx is done. A
// scene that fails to load prevents the server from starting.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener, reg prometheus.Registerer) error {
	collector, err := observability.NewSceneCollector(reg)
	if err != nil {
		return fmt.Errorf("initialise metrics: %w", err)
	}

	scene, err := core.LoadSceneFiles(ctx, cfg.Scene.Positions, cfg.Scene.Beams,
		core.WithLogger(log),
		core.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	store := kb.NewSceneStore()
	watchStore(ctx, store, collector, log)
	if err := store.SetScene(scene); err != nil {
		return err
	}

	var opts []server.Option
	if cfg.Server.MetricsAddr == "" {
		opts = append(opts, server.WithCollector(collector))
	}
	srv := &http.Server{
		Handler:           server.New(store, log, opts...),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()
	log.Info(ctx, "serving scene", logging.String("addr", lis.Addr().String()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info(context.Background(), "shutting down scene server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// watchStore keeps the scene gauges in step with the stored scene and logs
// every replacement.
func watchStore(ctx context.Context, store *kb.SceneStore, collector *observability.SceneCollector, log logging.Logger) {
	store.Subscribe(func(ev kb.Event) {
		if ev.Type != kb.EventSceneLoaded {
			return
		}
		stats := ev.Scene.Stats()
		collector.ObserveScene(stats)
		log.Info(ctx, "scene stored",
			logging.Int("points", ev.Scene.PointCount()),
			logging.Int("beams", stats.Beams),
			logging.Int("served_users", stats.ServedUsers),
		)
	})
}

func serveMetrics(addr string, collector *observability.SceneCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
