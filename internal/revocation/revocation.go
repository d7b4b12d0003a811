package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client keeps a redis-backed set of revoked user ids. Entries expire
// with the access-token TTL, after which the token is dead anyway.
type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

func key(userID string) string {
	return "revoked:user:" + userID
}

// Revoke marks every outstanding token for a user invalid until ttl passes.
func (c *Client) Revoke(ctx context.Context, userID string, ttl time.Duration) error {
	return c.redisdb.Set(ctx, key(userID), "1", ttl).Err()
}

func (c *Client) IsRevoked(ctx context.Context, userID string) (bool, error) {
	n, err := c.redisdb.Exists(ctx, key(userID)).Result()

	if err != nil {
		return false, err
	}

	return n > 0, nil
}
