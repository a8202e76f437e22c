package config

import (
    "context"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "3s")
    t.Setenv("CACHE_ENABLED", "off")

    cfg := LoadCacheConfig()
    assert.False(t, cfg.Enabled)
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
    assert.Equal(t, 3*time.Second, cfg.TTL)
    assert.Equal(t, 5*time.Minute, cfg.SearchTTL)

    search := cfg.WithTTL("search", cfg.SearchTTL)
    assert.Equal(t, "cache:search", search.Prefix)
    assert.Equal(t, 5*time.Minute, search.TTL)
    assert.Equal(t, "cache", cfg.Prefix)
}

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 50*time.Second, cfg.TTL)

    t.Setenv("RATE_LIMIT_BURST", "12")
    assert.Equal(t, 12, LoadRateLimitConfig().Capacity)
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)

    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6379")
    t.Setenv("REDIS_DB", "2")
    cfg := LoadRedisConfig()
    assert.Equal(t, "redis:6379", cfg.Addr)
    assert.Equal(t, 2, cfg.DB)
    assert.False(t, cfg.TLS)
}

func TestRedisConnect(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb, err := RedisConfig{Addr: mr.Addr(), DialTimeout: time.Second}.Connect(context.Background())
    require.NoError(t, err)
    defer rdb.Close()
    assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())

    addr := mr.Addr()
    mr.Close()
    _, err = RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}.Connect(context.Background())
    assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
    assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitList(" https://a.example, ,https://b.example "))
    assert.Nil(t, splitList(""))
}
