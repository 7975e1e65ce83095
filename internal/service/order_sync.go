package service

import (
	"context"

	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/metrics"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/realtime"
	"github.com/ali-baba-kitchen/internal/repository"
)

const orderWatchPageSize = 100

// OrderSink 接收订单全量列表；返回错误时结束订阅
type OrderSink func(orders []models.Order) error

// OrderSyncService 订单实时同步
// 每次变更都重新拉取完整列表，不做增量合并。
type OrderSyncService struct {
	broker    realtime.Broker
	orderRepo repository.OrderRepository
	metrics   *metrics.Metrics
}

// NewOrderSyncService 创建实时同步服务
func NewOrderSyncService(broker realtime.Broker, orderRepo repository.OrderRepository, m *metrics.Metrics) *OrderSyncService {
	return &OrderSyncService{broker: broker, orderRepo: orderRepo, metrics: m}
}

// WatchAll 管理端订阅全部订单
func (s *OrderSyncService) WatchAll(ctx context.Context, sink OrderSink) error {
	fetch := func() ([]models.Order, error) {
		orders, _, err := s.orderRepo.ListAdmin(repository.OrderListFilter{Page: 1, PageSize: orderWatchPageSize})
		return orders, err
	}
	return s.watch(ctx, "admin", realtime.Filter{}, fetch, sink)
}

// WatchCustomer 顾客订阅自己的订单
func (s *OrderSyncService) WatchCustomer(ctx context.Context, customerID uint, sink OrderSink) error {
	if customerID == 0 {
		return ErrUnauthorized
	}
	fetch := func() ([]models.Order, error) {
		orders, _, err := s.orderRepo.ListByUser(repository.OrderListFilter{UserID: customerID, Page: 1, PageSize: orderWatchPageSize})
		return orders, err
	}
	return s.watch(ctx, "customer", realtime.Filter{CustomerID: customerID}, fetch, sink)
}

func (s *OrderSyncService) watch(ctx context.Context, scope string, filter realtime.Filter, fetch func() ([]models.Order, error), sink OrderSink) error {
	sub, err := s.broker.Subscribe(ctx, filter)
	if err != nil {
		return newExternalError("subscribe order changes", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			logger.Debugw("order_watch_close_failed", "scope", scope, "error", err)
		}
	}()
	s.metrics.WatcherOpened(scope)
	defer s.metrics.WatcherClosed(scope)

	orders, err := fetch()
	if err != nil {
		return newExternalError("fetch orders", err)
	}
	if err := sink(orders); err != nil {
		return err
	}

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !isOrderTable(event.Table) {
				continue
			}
			drainPendingEvents(events)
			orders, err := fetch()
			if err != nil {
				logger.Warnw("order_watch_refetch_failed",
					"scope", scope,
					"table", event.Table,
					"order_id", event.OrderID,
					"error", err,
				)
				continue
			}
			if err := sink(orders); err != nil {
				return err
			}
		}
	}
}

// drainPendingEvents 合并已堆积的事件，一次重新拉取即可覆盖
func drainPendingEvents(events <-chan realtime.ChangeEvent) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// isOrderTable 事件是否影响订单列表
func isOrderTable(table string) bool {
	return table == constants.ChangeTableOrders || table == constants.ChangeTableOrderItems
}
