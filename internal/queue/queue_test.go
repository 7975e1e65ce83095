package queue

import (
	"encoding/json"
	"testing"

	"github.com/ali-baba-kitchen/internal/config"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("disabled client should report disabled")
	}
	if err := client.EnqueueOrderStatusNotify(OrderStatusNotifyPayload{OrderID: 1, Status: "confirmed"}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.EnqueueOrderPartialAlert(OrderPartialAlertPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled alert enqueue should be a no-op: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should report disabled")
	}
}

func TestPartialAlertTaskPayload(t *testing.T) {
	task, err := NewOrderPartialAlertTask(OrderPartialAlertPayload{OrderID: 7, OrderNumber: "ORD-123456789", Reason: "insert failed"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskOrderPartialAlert {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload OrderPartialAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.OrderNumber != "ORD-123456789" {
		t.Fatalf("unexpected order number: %s", payload.OrderNumber)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380})
	if opt.Addr != "redis:6380" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("unexpected concurrency: %d", cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] <= cfg.Queues[DefaultQueue] {
		t.Fatalf("critical queue should outrank default: %+v", cfg.Queues)
	}
}
