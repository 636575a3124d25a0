package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	config "github.com/routeoptima/route-optima/configs"
	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

const pingTimeout = 5 * time.Second

// NewRedisClient creates the process-wide Redis client and verifies it with PING.
// A rejected password yields route.ErrCacheAuth, anything else route.ErrCacheConnection.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", route.ErrCacheAuth, err)
		}
		return nil, fmt.Errorf("%w: ping %s: %v", route.ErrCacheConnection, client.Options().Addr, err)
	}

	return client, nil
}

func isAuthError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"WRONGPASS", "NOAUTH", "ERR invalid password"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return strings.Contains(msg, "without any password configured")
}
