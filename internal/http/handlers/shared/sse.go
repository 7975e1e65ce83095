package shared

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// SSE 事件名
const (
	EventOrders = "orders"
	EventPing   = "ping"
	EventError  = "error"
)

// OrderWatchFunc 订阅订单快照的函数签名
type OrderWatchFunc func(ctx context.Context, sink service.OrderSink) error

// StreamOrderSnapshots 以 Server-Sent Events 推送订单列表快照，直到客户端断开或订阅结束。
func StreamOrderSnapshots(c *gin.Context, keepAlive time.Duration, watch OrderWatchFunc) {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates := make(chan []service.OrderView, 1)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, func(orders []models.Order) error {
			select {
			case updates <- service.NewOrderViews(orders):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case views := <-updates:
			c.SSEvent(EventOrders, views)
			return true
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				RequestLog(c).Warnw("order_stream_closed", "error", err)
				c.SSEvent(EventError, gin.H{"msg": streamErrorMessage(err)})
			}
			return false
		case <-ticker.C:
			c.SSEvent(EventPing, time.Now().Unix())
			return true
		}
	})
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, service.ErrExternalService):
		return "service temporarily unavailable, please try again"
	default:
		return "order stream closed"
	}
}
