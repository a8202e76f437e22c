package config

// Redis backs the favorites store, the public response cache and the write
// rate limiter.  When it cannot be reached at startup the server keeps
// running: favorites fall back to process memory, caching and rate limiting
// are switched off.

import (
    "context"
    "crypto/tls"
    "os"
    "time"

    "github.com/pkg/errors"
    "github.com/redis/go-redis/v9"
)

// RedisConfig is read from:
//   REDIS_HOST and REDIS_PORT, or REDIS_ADDR as host:port (default localhost:6379)
//   REDIS_PASSWORD, REDIS_DB (default 0)
//   REDIS_TLS to dial with TLS 1.2+
//   REDIS_DIAL_TIMEOUT (default 2s)
type RedisConfig struct {
    Addr        string
    Password    string
    DB          int
    TLS         bool
    DialTimeout time.Duration
}

func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:        addr,
        Password:    os.Getenv("REDIS_PASSWORD"),
        DB:          envInt("REDIS_DB", 0),
        TLS:         envBool("REDIS_TLS", false),
        DialTimeout: envDur("REDIS_DIAL_TIMEOUT", 2*time.Second),
    }
}

// Connect returns a client once the server answers PING.
func (c RedisConfig) Connect(ctx context.Context) (*redis.Client, error) {
    opts := &redis.Options{
        Addr:        c.Addr,
        Password:    c.Password,
        DB:          c.DB,
        DialTimeout: c.DialTimeout,
    }
    if c.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    pingCtx, cancel := context.WithTimeout(ctx, c.DialTimeout+time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil, errors.Wrapf(err, "ping redis at %s", c.Addr)
    }
    return client, nil
}
