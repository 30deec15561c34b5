package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomcli/loom/pkg/config"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	config.Reset()
}

func TestDefaults(t *testing.T) {
	resetConfig(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8283", cfg.Server.URL)
	assert.Equal(t, 60*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 50, cfg.History.PageSize)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Equal(t, 15*time.Millisecond, cfg.Reveal.Interval)
	assert.Equal(t, 2, cfg.Reveal.BaseQuantum)
	assert.Equal(t, 200, cfg.Reveal.BurstThreshold)
	assert.Equal(t, 3, cfg.Reveal.BurstMultiplier)
	assert.Equal(t, 500, cfg.Reveal.FloodThreshold)
	assert.Equal(t, 5, cfg.Reveal.FloodMultiplier)
}

func TestOverrides(t *testing.T) {
	resetConfig(t)

	viper.Set("server.url", "https://agents.example.com")
	viper.Set("agent.id", "agent-42")
	viper.Set("history.page_size", 10)
	viper.Set("reveal.base_quantum", 4)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://agents.example.com", cfg.Server.URL)
	assert.Equal(t, "agent-42", cfg.Agent.ID)
	assert.Equal(t, 10, cfg.History.PageSize)
	assert.Equal(t, 4, cfg.Reveal.BaseQuantum)
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	resetConfig(t)
	t.Setenv("LOOM_API_KEY", "secret-token")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Server.APIKey)
}

func TestGetCaches(t *testing.T) {
	resetConfig(t)

	first := config.Get()
	second := config.Get()
	assert.Same(t, first, second)
}
