package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "fan_controller/docs"
	"fan_controller/internal/broadcast"
	"fan_controller/internal/config"
	"fan_controller/internal/executor"
	"fan_controller/internal/handlers"
	"fan_controller/internal/hardware"
	"fan_controller/internal/logger"
	"fan_controller/internal/metrics"
	"fan_controller/internal/repository"
	"fan_controller/internal/repository/db"
	"fan_controller/internal/server"
	"fan_controller/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap/zapcore"
)

const configDir = "configs"

// @title        iDRAC fan controller API
// @version      1.0
// @description  Curve-driven fan control for Dell servers over racadm and IPMI.
// @BasePath     /
func main() {
	// init logger
	boot := logger.New(logger.InfoLevel)

	// load configs/config.yml + FANCTL_* env
	cfg, err := config.Load(configDir)
	if err != nil {
		boot.Fatalw("error reading config", "err", err)
	}
	base := logger.New(cfg.Log.Level)

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// live events; the broadcaster itself logs without the forwarding core
	hub := broadcast.New(base, m)
	forwarder := broadcast.NewLogForwarder(hub, zapcore.InfoLevel, 0)
	log := base.Tee(forwarder.Core())

	// open DB
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	exec := executor.New(log, executor.WithObserver(m))
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		Log:    log,
		Events: hub,
		Clients: service.NewHardwareClients(exec, hardware.Options{
			Timeout:    cfg.IPMI.CommandTimeout,
			MaxRetries: cfg.IPMI.MaxRetries,
		}),
		MonitorMetrics: m,
		CleanupMetrics: m,
		RetentionDays:  cfg.Retention.Days,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.LoadPersisted(ctx); err != nil {
		log.Warnw("stored retention ignored", "err", err)
	}

	apiHandler := handlers.NewHandler(services, hub, reg, log)

	// bind before starting anything that touches hardware
	srv := &server.Server{}
	if err := srv.Listen(cfg.Port, apiHandler.InitRoutes()); err != nil {
		log.Fatalw("error starting server", "err", err)
	}

	var wg sync.WaitGroup
	runBackground(ctx, &wg, forwarder.Run)
	runBackground(ctx, &wg, services.Monitor.Run)
	runBackground(ctx, &wg, services.Cleanup.Run)

	runHTTPServer(srv, log)
	log.Infow("server started", "addr", srv.Addr())

	// graceful shutdown
	waitForShutdown(cancel, srv, &wg, cfg, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening sqlite", "path", cfg.DB.Path)
	return db.InitDB(cfg.DB.Path, db.Defaults{RetentionDays: cfg.Retention.Days})
}

func runBackground(ctx context.Context, wg *sync.WaitGroup, run func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		run(ctx)
	}()
}

// runHTTPServer serves in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	go func() {
		if err := srv.Serve(); err != nil {
			log.Errorw("http server stopped", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
// The monitor restores automatic fan control before the process exits.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, wg *sync.WaitGroup, cfg *config.Config, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	wg.Wait()
	log.Infow("shutdown complete")
}
