package service

import (
	"strings"

	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/repository"
)

// OrderView 订单响应，附带明细缺失标记
type OrderView struct {
	*models.Order
	HasAnomaly bool `json:"has_anomaly"`
}

// NewOrderView 包装订单
func NewOrderView(order *models.Order) OrderView {
	if order == nil {
		return OrderView{}
	}
	return OrderView{Order: order, HasAnomaly: order.HasAnomaly()}
}

// NewOrderViews 批量包装订单
func NewOrderViews(orders []models.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, NewOrderView(&orders[i]))
	}
	return views
}

// ListCustomerOrders 顾客订单列表（新订单在前）
func (s *OrderService) ListCustomerOrders(userID uint, page, pageSize int) ([]models.Order, int64, error) {
	if userID == 0 {
		return nil, 0, ErrUnauthorized
	}
	orders, total, err := s.orderRepo.ListByUser(repository.OrderListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, newExternalError("list customer orders", err)
	}
	return orders, total, nil
}

// GetCustomerOrder 顾客按订单号查看自己的订单
func (s *OrderService) GetCustomerOrder(userID uint, orderNumber string) (*models.Order, error) {
	order, err := s.getByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// LookupGuestOrder 游客凭订单号与下单邮箱查询订单
func (s *OrderService) LookupGuestOrder(orderNumber, email string) (*models.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, newValidationError("email", "is required")
	}
	order, err := s.getByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(order.CustomerEmail) != email {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAdminOrders 管理端订单列表
func (s *OrderService) ListAdminOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.OrderNumber = strings.TrimSpace(filter.OrderNumber)
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, newExternalError("list orders", err)
	}
	return orders, total, nil
}

// GetAdminOrder 管理端订单详情
func (s *OrderService) GetAdminOrder(orderID uint) (*models.Order, error) {
	return s.loadOrder(orderID)
}

func (s *OrderService) getByOrderNumber(orderNumber string) (*models.Order, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if orderNumber == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, newExternalError("load order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
