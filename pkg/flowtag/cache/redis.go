package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/cognicore/flowtag/pkg/flowtag/match"
)

// DefaultRedisPrefix namespaces every key written to redis.
const DefaultRedisPrefix = "flowtag:"

// Redis stores results in a redis server.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis wraps an existing client. ttl <= 0 stores without expiry.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: DefaultRedisPrefix, ttl: ttl}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return NewRedis(client, ttl), nil
}

func (c *Redis) Get(ctx context.Context, key string) ([]match.Tag, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	tags, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return tags, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, tags []match.Tag) error {
	data, err := encode(tags)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.prefix+key, string(data), ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
