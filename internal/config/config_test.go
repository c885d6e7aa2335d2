package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func required() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost/consent",
		"HOST_TOKEN":   "host-secret",
		"NONCE_SECRET": "nonce-secret",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(required()))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, QueueMemory, cfg.QueueBackend)
	assert.Equal(t, 200, cfg.BatchChunk)
	assert.Equal(t, 24*time.Hour, cfg.NonceLifetime)
	assert.False(t, cfg.ShowOnEdit)
	assert.Empty(t, cfg.BatchSchedule)
	assert.EqualValues(t, 25, cfg.DBMaxConns)
}

func TestLoad_Overrides(t *testing.T) {
	env := required()
	env["SHOW_ON_EDIT"] = "true"
	env["BATCH_CHUNK"] = "50"
	env["QUEUE_BACKEND"] = "redis"
	env["INTEGRATION_TIMEOUT"] = "3s"

	cfg, err := load(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)

	assert.True(t, cfg.ShowOnEdit)
	assert.Equal(t, 50, cfg.BatchChunk)
	assert.Equal(t, QueueRedis, cfg.QueueBackend)
	assert.Equal(t, 3*time.Second, cfg.IntegrationTimeout)
}

func TestLoad_MissingRequired(t *testing.T) {
	env := required()
	delete(env, "DATABASE_URL")

	_, err := load(context.Background(), envconfig.MapLookuper(env))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"QUEUE_BACKEND":     "kafka",
		"BATCH_CHUNK":       "0",
		"ACTION_WORKERS":    "-1",
		"ACTION_RATE_LIMIT": "0",
		"NONCE_LIFETIME":    "1ns",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			env := required()
			env[key] = val
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}
