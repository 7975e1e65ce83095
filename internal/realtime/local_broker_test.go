package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
)

func receive(t *testing.T, sub Subscription) (ChangeEvent, bool) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		return ev, ok
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for change event")
	}
	return ChangeEvent{}, false
}

func TestLocalBrokerFiltersByCustomer(t *testing.T) {
	broker := NewLocalBroker(4)
	defer broker.Close()
	ctx := context.Background()

	all, err := broker.Subscribe(ctx, Filter{Table: constants.ChangeTableOrders})
	if err != nil {
		t.Fatalf("subscribe all failed: %v", err)
	}
	defer all.Close()
	mine, err := broker.Subscribe(ctx, Filter{Table: constants.ChangeTableOrders, CustomerID: 7})
	if err != nil {
		t.Fatalf("subscribe customer failed: %v", err)
	}
	defer mine.Close()

	if err := broker.Publish(ctx, ChangeEvent{Table: constants.ChangeTableOrders, Type: constants.ChangeTypeInsert, OrderID: 1, CustomerID: 3}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := broker.Publish(ctx, ChangeEvent{Table: constants.ChangeTableOrders, Type: constants.ChangeTypeUpdate, OrderID: 2, CustomerID: 7}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	first, _ := receive(t, all)
	second, _ := receive(t, all)
	if first.OrderID != 1 || second.OrderID != 2 {
		t.Fatalf("admin subscription should see every order, got %d then %d", first.OrderID, second.OrderID)
	}
	got, _ := receive(t, mine)
	if got.OrderID != 2 {
		t.Fatalf("customer subscription should only see own orders, got order %d", got.OrderID)
	}
	select {
	case ev := <-mine.Events():
		t.Fatalf("unexpected extra event for customer: %+v", ev)
	default:
	}
	if got.At.IsZero() {
		t.Fatalf("publish should stamp event time")
	}
}

func TestLocalBrokerCloseSubscriptionEndsStream(t *testing.T) {
	broker := NewLocalBroker(1)
	sub, err := broker.Subscribe(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, ok := receive(t, sub); ok {
		t.Fatalf("events channel should be closed after Close")
	}
	// 关闭后再发布不能向已关闭的 channel 写入
	if err := broker.Publish(context.Background(), ChangeEvent{Table: constants.ChangeTableOrders}); err != nil {
		t.Fatalf("publish after unsubscribe failed: %v", err)
	}
	_ = sub.Close()
}

func TestLocalBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	broker := NewLocalBroker(1)
	defer broker.Close()
	sub, err := broker.Subscribe(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Close()
	for i := 0; i < 3; i++ {
		if err := broker.Publish(context.Background(), ChangeEvent{OrderID: uint(i + 1)}); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}
	ev, _ := receive(t, sub)
	if ev.OrderID != 1 {
		t.Fatalf("expected first buffered event, got %d", ev.OrderID)
	}
}

func TestBrokerClosedRejectsSubscribe(t *testing.T) {
	broker := NewLocalBroker(1)
	_ = broker.Close()
	if _, err := broker.Subscribe(context.Background(), Filter{}); err != ErrBrokerClosed {
		t.Fatalf("expected ErrBrokerClosed, got %v", err)
	}
	if err := broker.Publish(context.Background(), ChangeEvent{}); err != ErrBrokerClosed {
		t.Fatalf("expected ErrBrokerClosed on publish, got %v", err)
	}
}

func TestNewBrokerDrivers(t *testing.T) {
	b, err := NewBroker(config.RealtimeConfig{Driver: "local"}, nil)
	if err != nil {
		t.Fatalf("local driver failed: %v", err)
	}
	if _, ok := b.(*LocalBroker); !ok {
		t.Fatalf("expected LocalBroker, got %T", b)
	}
	if _, err := NewBroker(config.RealtimeConfig{Driver: "redis"}, nil); err == nil {
		t.Fatalf("redis driver without client should fail")
	}
	if _, err := NewBroker(config.RealtimeConfig{Driver: "kafka"}, nil); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
