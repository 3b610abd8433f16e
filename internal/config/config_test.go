package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendBolt, cfg.Backend)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 4, cfg.SweepConcurrency)
	assert.Equal(t, "AGQ", cfg.QualifyingFund)
	assert.False(t, cfg.SeedDemo)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SEED_DEMO", "true")
	t.Setenv("LEDGERCORE_BACKEND", BackendPostgres)
	t.Setenv("DB_CONN_STR", "host=db port=5432 user=u password=p dbname=ledger sslmode=disable")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("YTD_FUND", "AGT")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "AGT", cfg.QualifyingFund)
	assert.True(t, cfg.SeedDemo)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = "not-a-port" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"unknown backend", func(c *Config) { c.Backend = "dynamo" }},
		{"bolt without path", func(c *Config) { c.Backend = BackendBolt; c.BoltPath = "" }},
		{"zero sweep interval", func(c *Config) { c.SweepInterval = 0 }},
		{"zero sweep concurrency", func(c *Config) { c.SweepConcurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
