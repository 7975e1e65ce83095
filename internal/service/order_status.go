package service

import (
	"context"
	"strings"

	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/models"
)

// advanceTransitions 厨房流程的下一状态，delivered 为终态
var advanceTransitions = map[string]string{
	constants.OrderStatusConfirmed: constants.OrderStatusPreparing,
	constants.OrderStatusPreparing: constants.OrderStatusReady,
	constants.OrderStatusReady:     constants.OrderStatusDelivered,
}

// NextStatus 返回 Advance 的目标状态
func NextStatus(status string) (string, bool) {
	next, ok := advanceTransitions[status]
	return next, ok
}

// Accept 接单：pending -> confirmed，必须给出预计时间
func (s *OrderService) Accept(ctx context.Context, orderID uint, deliveryTimeEstimate, adminNotes string) (*models.Order, error) {
	estimate := strings.TrimSpace(deliveryTimeEstimate)
	if estimate == "" {
		return nil, newValidationError("delivery_time", "estimate is required")
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusPending {
		return nil, &InvalidTransitionError{From: order.Status, Action: constants.OrderActionAccept}
	}
	now := s.now()
	return s.applyTransition(ctx, order, constants.OrderActionAccept, constants.OrderStatusConfirmed, map[string]interface{}{
		"delivery_time": estimate,
		"admin_notes":   strings.TrimSpace(adminNotes),
		"confirmed_at":  now,
	})
}

// Reject 拒单：pending -> cancelled，必须给出原因
func (s *OrderService) Reject(ctx context.Context, orderID uint, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidationError("reason", "is required")
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusPending {
		return nil, &InvalidTransitionError{From: order.Status, Action: constants.OrderActionReject}
	}
	now := s.now()
	return s.applyTransition(ctx, order, constants.OrderActionReject, constants.OrderStatusCancelled, map[string]interface{}{
		"rejection_reason": reason,
		"cancelled_at":     now,
	})
}

// Advance 推进厨房流程；已送达时不做处理并返回 advanced=false
func (s *OrderService) Advance(ctx context.Context, orderID uint) (*models.Order, bool, error) {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, false, err
	}
	if order.Status == constants.OrderStatusDelivered {
		return order, false, nil
	}
	next, ok := NextStatus(order.Status)
	if !ok {
		return nil, false, &InvalidTransitionError{From: order.Status, Action: constants.OrderActionAdvance}
	}
	updated, err := s.applyTransition(ctx, order, constants.OrderActionAdvance, next, nil)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// applyTransition 比较并交换写入状态，并发下输掉的一方按最新状态报告非法流转
func (s *OrderService) applyTransition(ctx context.Context, order *models.Order, action, next string, updates map[string]interface{}) (*models.Order, error) {
	applied, err := s.orderRepo.UpdateStatusIf(ctx, order, next, updates)
	if err != nil {
		logger.Errorw("order_transition_failed",
			"order_id", order.ID,
			"action", action,
			"from", order.Status,
			"to", next,
			"error", err,
		)
		return nil, newExternalError("update order status", err)
	}
	if !applied {
		fresh, err := s.loadOrder(order.ID)
		if err != nil {
			return nil, err
		}
		logger.Infow("order_transition_conflict",
			"order_id", order.ID,
			"action", action,
			"expected", order.Status,
			"actual", fresh.Status,
		)
		return nil, &InvalidTransitionError{From: fresh.Status, Action: action}
	}

	updated, err := s.loadOrder(order.ID)
	if err != nil {
		return nil, err
	}
	s.enqueueStatusNotify(updated)
	s.metrics.ObserveTransition(action, next)
	logger.Infow("order_transitioned",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"action", action,
		"from", order.Status,
		"to", next,
	)
	return updated, nil
}

func (s *OrderService) loadOrder(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, newExternalError("load order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
