package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/BruksfildServices01/counselor-scheduler/internal/app"
	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/queue"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// callback-worker applies provider callbacks that a relay has written to
// Kafka. It shares storage and locks with the API, so both may run at once.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel).With("component", "callback-worker")

	if !cfg.KafkaEnabled() {
		log.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}
	if cfg.MemoryStorage() {
		log.Warn("memory storage is private to this process; callbacks will not reach the API")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := app.Bootstrap(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	workers := 8
	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.KafkaCallbackTopic, workers, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("consumer started",
			"group", cfg.KafkaGroup,
			"topic", cfg.KafkaCallbackTopic,
			"workers", workers,
		)
		if err := consumer.Start(ctx, queue.CallbackHandler(rt.Engine.Reconciler.Handle, log)); err != nil {
			log.Error("consumer exited", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")

	cancel()
	<-done
}
