package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var pingRedis = func(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// NewRedis crea un cliente a partir de REDIS_URL y verifica que responda.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := pingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
