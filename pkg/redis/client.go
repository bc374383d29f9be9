// Package redis 歌词缓存使用的 Redis 客户端
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix 歌词缓存键的前缀
const KeyPrefix = "lyrics:"

// Client Redis客户端包装器
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient 创建新的Redis客户端，ttl 为 0 时缓存永久有效
func NewClient(addr string, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	client := &Client{
		rdb: rdb,
		ttl: ttl,
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		rdb.Close()
		return nil, err
	}

	return client, nil
}

// Ping 测试连接
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetLyrics 读取缓存的 LRC 文本，未命中时 ok 为 false
func (c *Client) GetLyrics(ctx context.Context, key string) (string, bool, error) {
	text, err := c.rdb.Get(ctx, KeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// SetLyrics 写入 LRC 文本
func (c *Client) SetLyrics(ctx context.Context, key, text string) error {
	return c.rdb.Set(ctx, KeyPrefix+key, text, c.ttl).Err()
}

// DelLyrics 删除缓存
func (c *Client) DelLyrics(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, KeyPrefix+key).Err()
}

// Close 关闭客户端连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
