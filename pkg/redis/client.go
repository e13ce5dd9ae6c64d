package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// StatsKey is the hash holding one counter field per /display outcome.
const StatsKey = "relay:stats"

// Client wraps a Redis connection used for relay outcome counters.
// A nil *Client is valid and behaves as a disabled store.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration
type Config struct {
	Address  string
	Password string
	DB       int
	Enabled  bool
}

// NewClient connects to Redis. It returns (nil, nil) when the store is disabled.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if !config.Enabled {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Address, err)
	}

	logger.Log.Infof("Connected to Redis at %s", config.Address)

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) IsConnected(ctx context.Context) bool {
	if c == nil {
		return false
	}
	return c.rdb.Ping(ctx).Err() == nil
}

// IncrOutcome bumps the counter for one outcome label.
func (c *Client) IncrOutcome(ctx context.Context, outcome string) error {
	if c == nil {
		return nil
	}
	return c.rdb.HIncrBy(ctx, StatsKey, outcome, 1).Err()
}

// Outcomes returns every counter recorded so far.
func (c *Client) Outcomes(ctx context.Context) (map[string]int64, error) {
	if c == nil {
		return nil, fmt.Errorf("redis stats store is disabled")
	}

	raw, err := c.rdb.HGetAll(ctx, StatsKey).Result()
	if err != nil {
		return nil, err
	}

	outcomes := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			logger.Log.Warnf("Skipping non-numeric stats field %s=%q", field, value)
			continue
		}
		outcomes[field] = n
	}

	return outcomes, nil
}
