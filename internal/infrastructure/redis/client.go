package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	pingTimeout = 2 * time.Second
	ioTimeout   = time.Second
)

// Client wraps the go-redis connection used by the mail sink. The harness
// never retries a failed command, so retries are switched off here too.
type Client struct {
	rdb *goredis.Client
}

func New(addr, password string, db int) *Client {
	opts := &goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   -1,
		DialTimeout:  pingTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolSize:     4,
	}
	return &Client{rdb: goredis.NewClient(opts)}
}

// Ping bounds the check with its own timeout so a wrong REDIS_ADDR fails
// wiring quickly.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error { return c.rdb.Close() }
