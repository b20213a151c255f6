package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option adjusts the client options before the client is created.
type Option func(*redis.Options)

// WithPassword sets the AUTH password.
func WithPassword(password string) Option {
	return func(o *redis.Options) { o.Password = password }
}

// WithDB selects the logical database.
func WithDB(db int) Option {
	return func(o *redis.Options) { o.DB = db }
}

// New creates a Redis client and checks it is reachable.
func New(ctx context.Context, addr string, opts ...Option) (*redis.Client, error) {
	options := &redis.Options{Addr: addr}
	for _, opt := range opts {
		opt(options)
	}
	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}

	return client, nil
}
