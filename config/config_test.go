package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "db/pg", cfg.DatabaseMigrationFolderPath)
	assert.Equal(t, "exercise-identity-events", cfg.KafkaEventTopic)
	assert.Equal(t, 10*time.Minute, cfg.RedisMasterCacheTTL)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("STORE_DRIVER=memory\nPORT=8081\nREDIS_HOST=cache\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("PORT")
		os.Unsetenv("REDIS_HOST")
	})

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 8081, cfg.Port)
	assert.True(t, cfg.CacheEnabled())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "a:9092,b:9092", cfg.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: true},
		{name: "auth without issuer", mutate: func(c *Config) { c.AuthEnabled = true }, wantErr: true},
		{name: "auth with issuer", mutate: func(c *Config) {
			c.AuthEnabled = true
			c.AuthIssuerURL = "https://issuer.example.com"
			c.AuthClientID = "fern"
		}},
		{name: "unknown otlp protocol", mutate: func(c *Config) { c.OTLPProtocol = "udp" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{StoreDriver: StoreDriverPostgres, OTLPProtocol: "grpc"}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
