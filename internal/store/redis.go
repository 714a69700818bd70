package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ashenrealm/pkg/retrylimit"
)

// ConnectRedis opens a Redis client and verifies connectivity, retrying while
// the server comes up.
func ConnectRedis(ctx context.Context, url string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	lim := retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5)
	if err := retrylimit.WithRetryMax(ctx, func() error { return client.Ping(ctx).Err() }, lim, 10); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected to redis")
	return client, nil
}
