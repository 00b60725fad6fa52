// Package redis provides the Redis client and the per-owner master exercise cache built on it
package redis

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// Config holds Redis connection configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr is the host:port pair the client dials
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client is the narrow slice of Redis the master cache uses: expiring values guarded by
// per-key counters
type Client struct {
	rdb    *redis.Client
	logger ectologger.Logger
}

// NewClient dials Redis and fails unless the first ping succeeds
func NewClient(ctx context.Context, cfg Config, logger ectologger.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	client := &Client{rdb: rdb, logger: logger}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "failed to connect to Redis at %s", cfg.Addr())
	}

	logger.WithField("addr", cfg.Addr()).Info("Connected to Redis")
	return client, nil
}

// Ping reports whether Redis answers; it doubles as the cache health probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the raw value under key. A missing key is redis.Nil.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, key).Bytes()
}

// Counter returns the integer stored under key, 0 when the key is missing
func (c *Client) Counter(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// IncrAndDel increments counterKey and removes keys in one MULTI/EXEC transaction
func (c *Client) IncrAndDel(ctx context.Context, counterKey string, keys ...string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, counterKey)
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	return err
}

// setIfCounter writes KEYS[2] only while KEYS[1] holds ARGV[1]; a missing counter reads as 0
var setIfCounter = redis.NewScript(`
	local current = redis.call("get", KEYS[1]) or "0"
	if current == ARGV[1] then
		redis.call("set", KEYS[2], ARGV[2], "PX", ARGV[3])
		return 1
	end
	return 0
`)

// SetIfCounter stores value under key for ttl only while counterKey still holds expected.
// It reports false when the counter had moved.
func (c *Client) SetIfCounter(ctx context.Context, counterKey string, expected int64, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errors.New("ttl must be positive")
	}
	result, err := setIfCounter.Run(ctx, c.rdb, []string{counterKey, key}, strconv.FormatInt(expected, 10), value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
