package config

import (
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvParsing(t *testing.T) {
	t.Setenv("RUN_ADDRESS", "0.0.0.0:9090")
	t.Setenv("DATABASE_URI", "postgres://localhost/invoicing")
	t.Setenv("RATES_PROVIDER_ADDRESS", "http://rates.internal")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	assert.Equal(t, "0.0.0.0:9090", cfg.RunAddress)
	assert.Equal(t, "postgres://localhost/invoicing", cfg.DatabaseURI)
	assert.Equal(t, "http://rates.internal", cfg.RatesProviderAddress)
	assert.Equal(t, int64(1048576), cfg.MaxUploadBytes)
}

func TestEnvDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))

	assert.Equal(t, int64(10485760), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.RunAddress)
}
