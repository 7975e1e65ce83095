package realtime

import (
	"fmt"
	"strings"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"

	"github.com/redis/go-redis/v9"
)

// NewBroker 按配置创建 broker；redis 驱动需要可用的 Redis 客户端
func NewBroker(cfg config.RealtimeConfig, redisClient *redis.Client) (Broker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", constants.RealtimeDriverLocal:
		return NewLocalBroker(cfg.BufferSize), nil
	case constants.RealtimeDriverRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("realtime driver redis requires redis.enabled")
		}
		return NewRedisBroker(redisClient, cfg.Channel, cfg.BufferSize)
	case constants.RealtimeDriverRabbitMQ:
		return NewAMQPBroker(cfg.AMQPURL, cfg.Exchange, cfg.BufferSize)
	default:
		return nil, fmt.Errorf("unsupported realtime driver: %s", cfg.Driver)
	}
}
