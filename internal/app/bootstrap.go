package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counselor-scheduler/internal/audit"
	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/internal/db"
	"github.com/BruksfildServices01/counselor-scheduler/internal/domain/payment"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/archive"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/gateway"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/counselor-scheduler/internal/infra/queue"
	"github.com/BruksfildServices01/counselor-scheduler/internal/lock"
	"github.com/BruksfildServices01/counselor-scheduler/internal/metrics"
	"github.com/BruksfildServices01/counselor-scheduler/internal/notify"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

const notifyBuffer = 1024

// Runtime is an Engine plus the infrastructure it was wired from.
type Runtime struct {
	Engine *Engine
	Config *config.Config

	// DB is nil with STORAGE=memory.
	DB *gorm.DB

	closers []func()
}

// Close releases infrastructure in reverse order of creation.
func (rt *Runtime) Close() {
	if rt.Engine != nil {
		rt.Engine.Booking.Drain()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// Bootstrap wires the engine from config: storage, locks, notification
// sinks, metrics and the callback archive.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logging.Logger, reg prometheus.Registerer) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if log == nil {
		log = logging.Default()
	}
	if cfg.GatewayMode != "" && cfg.GatewayMode != "sandbox" {
		return nil, fmt.Errorf("bootstrap: unsupported gateway mode %q", cfg.GatewayMode)
	}

	rt := &Runtime{Config: cfg}
	m := metrics.NewEngineMetrics(reg)

	// storage
	var (
		repos       Repositories
		auditLogger *audit.Logger
	)
	if cfg.MemoryStorage() {
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		repos = MemoryRepositories(store)
		auditLogger = audit.NewWithStore(store)
	} else {
		gdb, err := db.NewDB(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		rt.DB = gdb
		repos = GormRepositories(gdb)
		auditLogger = audit.New(gdb)
		if sqlDB, err := gdb.DB(); err == nil {
			rt.closers = append(rt.closers, func() { _ = sqlDB.Close() })
		}
	}

	// exclusive sections
	var locks lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("bootstrap: redis ping: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = rdb.Close() })
		locks = lock.NewRedisLocker(rdb, cfg.LockTTL)
		log.Info("using redis locks", "addr", cfg.RedisAddr)
	}

	// notifications
	sinks := notify.MultiSink{
		notify.NewLogSink(log),
		notify.NewAuditSink(auditLogger),
	}
	if cfg.KafkaEnabled() {
		producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaNotifyTopic)
		rt.closers = append(rt.closers, func() { _ = producer.Close() })
		sinks = append(sinks, notify.NewKafkaSink(producer))
		log.Info("publishing booking events", "topic", cfg.KafkaNotifyTopic)
	}
	dispatcher := notify.NewDispatcher(sinks, notifyBuffer, log, m)
	rt.closers = append(rt.closers, dispatcher.Close)

	// raw callback archive
	var archiver payment.Archiver
	if cfg.S3ArchiveBucket != "" {
		archiver = archive.NewStore(archive.NewS3Client(cfg), cfg.S3ArchiveBucket, nil, log)
		log.Info("archiving callbacks", "bucket", cfg.S3ArchiveBucket)
	}

	rt.Engine = Build(Options{
		Repos:              repos,
		Locks:              locks,
		Log:                log,
		Metrics:            m,
		Sink:               dispatcher,
		Archive:            archiver,
		Verifier:           gateway.NewHMACVerifier(cfg.CallbackSecret),
		HoldTTL:            cfg.HoldTTL,
		CallbackRetention:  cfg.CallbackRetention,
		GatewayMaxAttempts: cfg.GatewayMaxAttempts,
		GatewayBackoff:     cfg.GatewayBackoff,
		DefaultTimezone:    cfg.DefaultTimezone,
	})
	return rt, nil
}
