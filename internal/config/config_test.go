package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "rl", cfg.Prefix)
}

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "-5")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL, "TTL is raised to cover refills")
}

func TestLoadCacheConfigDefaults(t *testing.T) {
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}

func TestParseMethods(t *testing.T) {
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, parseMethods("get, head"))
	assert.Empty(t, parseMethods(""))
}

func TestEnvDurIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_DUR", "not-a-duration")
	assert.Equal(t, time.Minute, envDur("SOME_DUR", time.Minute))

	t.Setenv("SOME_DUR", "90s")
	assert.Equal(t, 90*time.Second, envDur("SOME_DUR", time.Minute))
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG", "off")
	assert.False(t, envBool("FLAG", true))

	t.Setenv("FLAG", "yes")
	assert.True(t, envBool("FLAG", false))

	t.Setenv("FLAG", "maybe")
	assert.True(t, envBool("FLAG", true), "unparseable values fall back to the default")
}
