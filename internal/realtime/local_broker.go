package realtime

import (
	"context"
	"sync"
	"time"
)

// LocalBroker 进程内广播，单实例部署与测试使用
type LocalBroker struct {
	mu         sync.RWMutex
	subs       map[*localSubscription]struct{}
	bufferSize int
	closed     bool
}

// NewLocalBroker 创建进程内 broker
func NewLocalBroker(bufferSize int) *LocalBroker {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &LocalBroker{
		subs:       make(map[*localSubscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Publish 广播事件；慢订阅者的缓冲满时丢弃该事件
func (b *LocalBroker) Publish(ctx context.Context, event ChangeEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBrokerClosed
	}
	for sub := range b.subs {
		if !sub.filter.Match(event) {
			continue
		}
		select {
		case sub.ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// 订阅方每次都会全量重拉，丢一条不影响最终一致
		}
	}
	return nil
}

// Subscribe 注册订阅
func (b *LocalBroker) Subscribe(ctx context.Context, filter Filter) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	sub := &localSubscription{
		broker: b,
		filter: filter,
		ch:     make(chan ChangeEvent, b.bufferSize),
	}
	b.subs[sub] = struct{}{}
	return sub, nil
}

// Close 关闭 broker 并结束全部订阅
func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for sub := range b.subs {
		sub.closeOnce.Do(func() { close(sub.ch) })
		delete(b.subs, sub)
	}
	return nil
}

func (b *LocalBroker) remove(sub *localSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
	}
	sub.closeOnce.Do(func() { close(sub.ch) })
}

type localSubscription struct {
	broker    *LocalBroker
	filter    Filter
	ch        chan ChangeEvent
	closeOnce sync.Once
}

func (s *localSubscription) Events() <-chan ChangeEvent {
	return s.ch
}

func (s *localSubscription) Close() error {
	s.broker.remove(s)
	return nil
}
