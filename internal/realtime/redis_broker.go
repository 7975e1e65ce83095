package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ali-baba-kitchen/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisBroker 基于 Redis Pub/Sub 的多实例广播
type RedisBroker struct {
	client     *redis.Client
	channel    string
	bufferSize int
}

// NewRedisBroker 创建 Redis broker
func NewRedisBroker(client *redis.Client, channel string, bufferSize int) (*RedisBroker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "orders:changes"
	}
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &RedisBroker{client: client, channel: channel, bufferSize: bufferSize}, nil
}

// Publish 发布事件
func (b *RedisBroker) Publish(ctx context.Context, event ChangeEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe 订阅频道，过滤在本地完成
func (b *RedisBroker) Subscribe(ctx context.Context, filter Filter) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// 等待订阅确认，避免确认前发布的事件丢失
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	sub := &redisSubscription{
		pubsub: pubsub,
		filter: filter,
		out:    make(chan ChangeEvent, b.bufferSize),
		done:   make(chan struct{}),
	}
	go sub.loop(pubsub.Channel())
	return sub, nil
}

// Close Redis 客户端由容器统一关闭
func (b *RedisBroker) Close() error {
	return nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	filter    Filter
	out       chan ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) loop(messages <-chan *redis.Message) {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Named("realtime").Warnw("realtime_redis_payload_invalid", "error", err)
				continue
			}
			if !s.filter.Match(event) {
				continue
			}
			select {
			case s.out <- event:
			case <-s.done:
				return
			default:
			}
		}
	}
}

func (s *redisSubscription) Events() <-chan ChangeEvent {
	return s.out
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.pubsub != nil {
			err = s.pubsub.Close()
		}
	})
	return err
}
