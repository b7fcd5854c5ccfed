package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := fromViper()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000.0, cfg.Map.SanityThresholdM)
	assert.Equal(t, 10*time.Second, cfg.Map.ReadyTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Map.PollInterval)
	assert.Equal(t, 1, cfg.Map.ResolveConcurrency)
	assert.Equal(t, 50, cfg.Map.BoundsPadding)
	assert.Equal(t, "place-resolve-workers", cfg.Worker.ConsumerGroup)
	assert.Equal(t, "https://dapi.kakao.com", cfg.Kakao.LocalBaseURL)
	assert.Empty(t, cfg.Kakao.MapAppKey)
}

func TestFromViper_Overrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("API_HOST", "0.0.0.0")
	viper.Set("API_PORT", 9090)
	viper.Set("KAKAO_MAP_APP_KEY", "js-key")
	viper.Set("MAP_READY_TIMEOUT_MS", 2500)
	viper.Set("MAP_RESOLVE_CONCURRENCY", 3)
	viper.Set("REDIS_HOST", "redis")
	viper.Set("REDIS_PORT", 6380)

	cfg := fromViper()

	assert.Equal(t, "0.0.0.0:9090", cfg.GetServerAddr())
	assert.Equal(t, "js-key", cfg.Kakao.MapAppKey)
	assert.Equal(t, 2500*time.Millisecond, cfg.Map.ReadyTimeout)
	assert.Equal(t, 3, cfg.Map.ResolveConcurrency)
	assert.Equal(t, "redis:6380", cfg.GetRedisAddr())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "placemap",
		Password: "secret",
		DBName:   "places",
		SSLMode:  "disable",
	}}

	want := "host=db port=5433 user=placemap password=secret dbname=places sslmode=disable"
	assert.Equal(t, want, cfg.Database.DSN())
	assert.Equal(t, want, cfg.GetDatabaseDSN())
}
