package serve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/internal/cmd/application"
	"github.com/agentstation/featurereg/internal/server"
)

func TestParseConfigKeepsConfiguredValues(t *testing.T) {
	base := server.DefaultConfig()
	base.Port = 9090
	base.APIKey = "from-config"
	base.Cache.Backend = "redis"

	cmd := NewCommand(&application.Mock{})
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, base, parseConfig(cmd, base))
}

func TestParseConfigAppliesChangedFlags(t *testing.T) {
	base := server.DefaultConfig()

	cmd := NewCommand(&application.Mock{})
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "3000",
		"--auth", "--api-key", "s3cret",
		"--cors-origins", "https://admin.example.com,https://hr.example.com",
		"--rate-limit", "0",
		"--cache-ttl", "30s",
		"--metrics=false",
	}))

	cfg := parseConfig(cmd, base)
	assert.Equal(t, 3000, cfg.Port)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "s3cret", cfg.APIKey)
	assert.True(t, cfg.CORSEnabled)
	assert.Equal(t, []string{"https://admin.example.com", "https://hr.example.com"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, base.Host, cfg.Host)
	assert.NoError(t, cfg.Validate())
}
