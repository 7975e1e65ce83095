package kvstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Store 键值存储（购物车快照、语言偏好）
// Get 未命中时返回 ok=false 且 err=nil。
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// New 按配置创建存储
func New(cfg config.KVConfig, repo repository.KVRepository, client *redis.Client) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", constants.KVDriverDatabase:
		return NewDBStore(repo), nil
	case constants.KVDriverRedis:
		if client == nil {
			return nil, fmt.Errorf("kv driver redis requires redis.enabled")
		}
		return NewRedisStore(client, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported kv driver: %s", cfg.Driver)
	}
}
