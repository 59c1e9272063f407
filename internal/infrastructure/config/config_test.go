package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "c2VjcmV0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL())
	assert.Equal(t, 10, cfg.JWT.BcryptCost)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.Admin.Password)
	assert.Equal(t, 30*time.Second, cfg.Redis.PrincipalCacheTTL)
	assert.False(t, cfg.LegacyErrorStatus)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":          "c2VjcmV0",
		"JWT_EXPIRATION_MS":   "1500",
		"STORAGE_DRIVER":      "mongo",
		"PRINCIPAL_CACHE_TTL": "0s",
		"REDIS_ADDR":          "redis://cache:6379/1",
		"REDIS_PASSWORD":      "hunter2",
		"REDIS_POOL_SIZE":     "20",
		"LEGACY_ERROR_STATUS": "true",
		"ENV":                 "production",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.JWT.TTL())
	assert.Equal(t, DriverMongo, cfg.StorageDriver)
	assert.Zero(t, cfg.Redis.PrincipalCacheTTL)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.Addr)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
	assert.Equal(t, 20, cfg.Redis.PoolSize)
	assert.True(t, cfg.LegacyErrorStatus)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Errors(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"missing secret": {},
		"bad driver":     {"JWT_SECRET": "c2VjcmV0", "STORAGE_DRIVER": "sqlite"},
		"zero ttl":       {"JWT_SECRET": "c2VjcmV0", "JWT_EXPIRATION_MS": "0"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}
