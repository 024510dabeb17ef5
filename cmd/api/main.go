package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/BruksfildServices01/counselor-scheduler/internal/app"
	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/internal/routes"
	"github.com/BruksfildServices01/counselor-scheduler/internal/scheduler"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt, err := app.Bootstrap(ctx, cfg, log, reg)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	// background sweeps
	sweeper := scheduler.NewSweeper(
		rt.Engine.Slots,
		rt.Engine.Booking,
		rt.Engine.Reconciler,
		rt.Engine.Clock,
		log,
	).WithInterval(cfg.SweepInterval)

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Engine:   rt.Engine,
		Config:   cfg,
		Log:      log,
		DB:       rt.DB,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", "addr", cfg.Addr(), "storage", cfg.Storage, "debug", cfg.Debug)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", "error", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}

	cancel()
	<-sweepDone
}
