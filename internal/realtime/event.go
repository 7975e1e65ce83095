package realtime

import (
	"context"
	"errors"
	"time"
)

// ErrBrokerClosed broker 已关闭
var ErrBrokerClosed = errors.New("realtime broker closed")

// ChangeEvent 数据变更事件（写入提交之后发布）
type ChangeEvent struct {
	Table      string    `json:"table"`
	Type       string    `json:"type"`
	RecordID   uint      `json:"record_id"`
	OrderID    uint      `json:"order_id"`
	CustomerID uint      `json:"customer_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

// Filter 订阅范围，CustomerID 为 0 表示全部订单
type Filter struct {
	Table      string
	CustomerID uint
}

// Match 判断事件是否落在订阅范围内
func (f Filter) Match(event ChangeEvent) bool {
	if f.Table != "" && f.Table != event.Table {
		return false
	}
	if f.CustomerID != 0 && f.CustomerID != event.CustomerID {
		return false
	}
	return true
}

// Publisher 变更事件发布者
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// Subscription 订阅句柄，调用方负责 Close
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// Broker 变更通知中介
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, filter Filter) (Subscription, error)
	Close() error
}
