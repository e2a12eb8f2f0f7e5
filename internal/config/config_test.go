package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_MemoryDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "30")
	t.Setenv("SELF_REGISTER_ROLES", " user , admin ,,")
	t.Setenv("FORGOT_REQUIRES_CODE", "false")
	t.Setenv("PROFILE_CACHE_TTL", "90s")
	t.Setenv("PROFILE_CACHE_PREFIX", "ud:")

	cfg := Load()

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL())
	assert.Equal(t, []string{"USER", "ADMIN"}, cfg.SelfRegisterRoles)
	assert.False(t, cfg.ForgotRequiresCode)
	assert.False(t, cfg.EventsEnabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "ud:", cfg.Cache.Prefix)
	assert.Empty(t, cfg.DBHost)
}

func TestLoadProfileCacheConfig_Defaults(t *testing.T) {
	t.Setenv("PROFILE_CACHE_TTL", "not-a-duration")
	t.Setenv("PROFILE_CACHE_MEMORY_SIZE", "-4")

	cfg := LoadProfileCacheConfig()
	assert.Equal(t, 300*time.Second, cfg.TTL)
	assert.Equal(t, 10000, cfg.MemorySize)
	assert.Empty(t, cfg.Prefix)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "2")
	opts := RedisOptions()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	opts = RedisOptions()
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.NotNil(t, opts.TLSConfig)
}
