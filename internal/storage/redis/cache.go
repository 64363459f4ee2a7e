package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) *Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{
			Addr: redisURL,
		}
	}

	client := redis.NewClient(opt)

	return &Client{client}
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, data, expiration).Err()
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Public form configs are read on every respondent page load and change
// rarely, so they are cached by slug with a short TTL.

func formConfigKey(slug string) string {
	return fmt.Sprintf("form:config:%s", slug)
}

func (c *Client) CacheFormConfig(ctx context.Context, slug string, cfg interface{}, ttl time.Duration) error {
	return c.SetJSON(ctx, formConfigKey(slug), cfg, ttl)
}

func (c *Client) GetCachedFormConfig(ctx context.Context, slug string, dest interface{}) error {
	return c.GetJSON(ctx, formConfigKey(slug), dest)
}

// InvalidateFormConfig drops the cached config after question or tenant
// edits.
func (c *Client) InvalidateFormConfig(ctx context.Context, slug string) error {
	return c.Del(ctx, formConfigKey(slug)).Err()
}
