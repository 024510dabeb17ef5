package app_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/counselor-scheduler/internal/app"
	"github.com/BruksfildServices01/counselor-scheduler/internal/config"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage:         "memory",
		GatewayMode:     "sandbox",
		CallbackSecret:  "s",
		DefaultTimezone: "UTC",
	}
}

func TestBootstrapMemory(t *testing.T) {
	rt, err := app.Bootstrap(context.Background(), memoryConfig(), logging.Discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.DB)
	require.NotNil(t, rt.Engine)
	assert.NotNil(t, rt.Engine.Sandbox)
	assert.NotNil(t, rt.Engine.Reconciler)
}

func TestBootstrapRedisLocks(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.RedisAddr = mr.Addr()

	rt, err := app.Bootstrap(context.Background(), cfg, logging.Discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	rt.Close()
}

func TestBootstrapRejectsUnknownGateway(t *testing.T) {
	cfg := memoryConfig()
	cfg.GatewayMode = "stripe"

	_, err := app.Bootstrap(context.Background(), cfg, logging.Discard(), nil)
	assert.Error(t, err)
}

func TestBootstrapRedisUnreachable(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := app.Bootstrap(context.Background(), cfg, logging.Discard(), prometheus.NewRegistry())
	assert.Error(t, err)
}
