package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/provider"
	"github.com/ali-baba-kitchen/internal/queue"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusNotify, c.handleOrderStatusNotify)
	mux.HandleFunc(queue.TaskOrderPartialAlert, c.handleOrderPartialAlert)
}

func (c *Consumer) handleOrderStatusNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_status_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_notify_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if !c.EmailService.Enabled() {
		logger.Debugw("worker_order_status_notify_skip_email_disabled", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_notify_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_notify_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	receiver := strings.TrimSpace(order.CustomerEmail)
	if receiver == "" {
		logger.Debugw("worker_order_status_notify_skip_empty_receiver", "order_id", order.ID, "order_number", order.OrderNumber)
		return nil
	}

	input := buildOrderStatusEmailInput(order, payload.Status)
	lang := c.resolveOrderLanguage(ctx, order)
	if err := c.EmailService.SendOrderStatusEmail(receiver, input, lang); err != nil {
		if errors.Is(err, service.ErrEmailRecipientRejected) || errors.Is(err, service.ErrValidation) {
			logger.Warnw("worker_order_status_notify_receiver_rejected",
				"order_id", order.ID,
				"order_number", order.OrderNumber,
				"error", err,
			)
			return nil
		}
		logger.Warnw("worker_order_status_notify_send_failed",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
			"receiver_email", receiver,
			"status", input.Status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleOrderPartialAlert(_ context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_partial_alert_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPartialAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_partial_alert_unmarshal_failed", "error", err)
		return err
	}
	logger.Errorw("worker_order_partial_alert",
		"order_id", payload.OrderID,
		"order_number", payload.OrderNumber,
		"reason", payload.Reason,
	)

	receiver := ""
	if c.Config != nil {
		receiver = strings.TrimSpace(c.Config.Order.AlertEmail)
	}
	if receiver == "" || !c.EmailService.Enabled() {
		return nil
	}
	if err := c.EmailService.SendPartialOrderAlert(receiver, payload.OrderNumber, payload.Reason); err != nil {
		logger.Warnw("worker_order_partial_alert_send_failed",
			"order_id", payload.OrderID,
			"order_number", payload.OrderNumber,
			"error", err,
		)
		return err
	}
	return nil
}

// resolveOrderLanguage 登录顾客使用其语言偏好，游客订单使用默认语言
func (c *Consumer) resolveOrderLanguage(ctx context.Context, order *models.Order) string {
	if order == nil || order.UserID == nil || c.PreferenceService == nil {
		return ""
	}
	return c.PreferenceService.GetLanguage(ctx, service.CartOwner{UserID: *order.UserID})
}

func buildOrderStatusEmailInput(order *models.Order, status string) service.OrderStatusEmailInput {
	if order == nil {
		return service.OrderStatusEmailInput{}
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = order.Status
	}
	return service.OrderStatusEmailInput{
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerName,
		Status:          status,
		OrderType:       order.OrderType,
		Total:           order.Total,
		DeliveryTime:    order.DeliveryTime,
		RejectionReason: order.RejectionReason,
	}
}
