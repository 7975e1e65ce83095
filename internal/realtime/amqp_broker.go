package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ali-baba-kitchen/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroker 基于 RabbitMQ fanout 交换机的广播，每个订阅独占一个临时队列
type AMQPBroker struct {
	conn       *amqp.Connection
	exchange   string
	bufferSize int

	mu      sync.Mutex
	pubChan *amqp.Channel
}

// NewAMQPBroker 连接 RabbitMQ 并声明交换机
func NewAMQPBroker(url, exchange string, bufferSize int) (*AMQPBroker, error) {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = "orders.changes"
	}
	if bufferSize <= 0 {
		bufferSize = 16
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPBroker{
		conn:       conn,
		exchange:   exchange,
		bufferSize: bufferSize,
		pubChan:    ch,
	}, nil
}

// Publish 发布事件（amqp channel 非并发安全，发布串行化）
func (b *AMQPBroker) Publish(ctx context.Context, event ChangeEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubChan == nil {
		return ErrBrokerClosed
	}
	return b.pubChan.PublishWithContext(
		pubCtx,
		b.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.At,
			Body:        body,
		},
	)
}

// Subscribe 声明独占自动删除队列并绑定交换机
func (b *AMQPBroker) Subscribe(ctx context.Context, filter Filter) (Subscription, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare subscriber queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", b.exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind subscriber queue: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, queue.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume subscriber queue: %w", err)
	}
	sub := &amqpSubscription{
		ch:     ch,
		filter: filter,
		out:    make(chan ChangeEvent, b.bufferSize),
		done:   make(chan struct{}),
	}
	go sub.loop(deliveries)
	return sub, nil
}

// Close 关闭发布 channel 与连接
func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubChan != nil {
		_ = b.pubChan.Close()
		b.pubChan = nil
	}
	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn.Close()
	}
	return nil
}

type amqpSubscription struct {
	ch        *amqp.Channel
	filter    Filter
	out       chan ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (s *amqpSubscription) loop(deliveries <-chan amqp.Delivery) {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			var event ChangeEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				logger.Named("realtime").Warnw("realtime_amqp_payload_invalid", "error", err)
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

func (s *amqpSubscription) Events() <-chan ChangeEvent {
	return s.out
}

func (s *amqpSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.ch != nil {
			err = s.ch.Close()
		}
	})
	return err
}
