package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/metrics"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/queue"
	"github.com/ali-baba-kitchen/internal/repository"
)

const orderNumberMaxAttempts = 5

var errOrderNumberExhausted = errors.New("order number allocation exhausted")

// OrderService 订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	queueClient *queue.Client
	metrics     *metrics.Metrics
	cfg         config.OrderConfig
	now         func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, queueClient *queue.Client, m *metrics.Metrics, cfg config.OrderConfig) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		queueClient: queueClient,
		metrics:     m,
		cfg:         cfg,
		now:         time.Now,
	}
}

// CheckoutForm 结账表单
type CheckoutForm struct {
	Name             string
	Email            string
	Phone            string
	Address          string
	City             string
	PostalCode       string
	Notes            string
	EstimatedMinutes int
}

// SubmitOrderInput 下单输入
type SubmitOrderInput struct {
	Cart          *CartStore
	Form          CheckoutForm
	OrderType     string
	PaymentMethod string
	CustomerID    uint
}

// SubmitOrder 校验购物车与表单，写入订单及明细，成功后清空购物车
func (s *OrderService) SubmitOrder(ctx context.Context, input SubmitOrderInput) (*models.Order, error) {
	if input.Cart == nil {
		s.metrics.ObserveSubmitFailure("empty_cart")
		return nil, ErrEmptyCart
	}
	snapshot := input.Cart.Snapshot()
	if len(snapshot.Items) == 0 {
		s.metrics.ObserveSubmitFailure("empty_cart")
		return nil, ErrEmptyCart
	}
	orderType, paymentMethod, form, err := validateCheckout(input)
	if err != nil {
		s.metrics.ObserveSubmitFailure("validation")
		return nil, err
	}

	totals := s.computeTotals(snapshot.Items, orderType)
	orderNumber, err := s.allocateOrderNumber()
	if err != nil {
		s.metrics.ObserveSubmitFailure("order_number")
		return nil, newExternalError("allocate order number", err)
	}

	order := &models.Order{
		OrderNumber:      orderNumber,
		CustomerName:     form.Name,
		CustomerEmail:    form.Email,
		CustomerPhone:    form.Phone,
		OrderType:        orderType,
		PaymentMethod:    paymentMethod,
		PaymentStatus:    constants.PaymentStatusPending,
		Status:           constants.OrderStatusPending,
		Subtotal:         totals.Subtotal,
		DeliveryFee:      totals.DeliveryFee,
		Total:            totals.Total,
		Notes:            form.Notes,
		EstimatedMinutes: s.resolveEstimate(orderType, form.EstimatedMinutes),
	}
	if input.CustomerID != 0 {
		customerID := input.CustomerID
		order.UserID = &customerID
	}
	if orderType == constants.OrderTypeDelivery {
		order.DeliveryAddress = form.Address
		order.DeliveryCity = form.City
		order.DeliveryPostal = form.PostalCode
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		logger.Errorw("order_create_failed", "order_number", orderNumber, "error", err)
		s.metrics.ObserveSubmitFailure("order_write")
		return nil, newExternalError("create order", err)
	}

	items := buildOrderItems(snapshot.Items)
	if err := s.orderRepo.CreateItems(ctx, order, items); err != nil {
		return nil, s.handleItemFailure(ctx, order, err)
	}
	order.Items = items

	if _, err := input.Cart.Clear(ctx); err != nil {
		logger.Warnw("order_cart_clear_failed",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
			"cart_key", input.Cart.Key(),
			"error", err,
		)
	}
	s.enqueueStatusNotify(order)
	s.metrics.ObserveSubmitted(orderType)
	logger.Infow("order_submitted",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"order_type", orderType,
		"items", len(items),
		"total", order.Total.String(),
	)
	return order, nil
}

// PreviewTotals 按订单类型试算金额，不写入任何数据
func (s *OrderService) PreviewTotals(snapshot CartSnapshot, orderType string) (Totals, error) {
	normalized := normalizeOrderType(orderType)
	if !isValidOrderType(normalized) {
		return Totals{}, newValidationError("order_type", "must be pickup or delivery")
	}
	return s.computeTotals(snapshot.Items, normalized), nil
}

func (s *OrderService) computeTotals(items []CartItem, orderType string) Totals {
	return ComputeTotals(items, orderType, s.cfg.FreeDeliveryThresholdDecimal(), s.cfg.BaseDeliveryFeeDecimal())
}

// handleItemFailure 明细写入失败后按配置保留或补偿删除订单
func (s *OrderService) handleItemFailure(ctx context.Context, order *models.Order, cause error) error {
	policy := strings.ToLower(strings.TrimSpace(s.cfg.ItemFailurePolicy))
	if policy == constants.ItemFailurePolicyCompensate {
		if err := s.orderRepo.Delete(context.WithoutCancel(ctx), order); err != nil {
			logger.Errorw("order_compensate_failed",
				"order_id", order.ID,
				"order_number", order.OrderNumber,
				"items_error", cause,
				"error", err,
			)
			return s.partialOrder(order, cause)
		}
		logger.Warnw("order_items_failed_compensated",
			"order_number", order.OrderNumber,
			"error", cause,
		)
		s.metrics.ObserveSubmitFailure("items_write")
		return newExternalError("create order items", cause)
	}
	logger.Errorw("order_items_create_failed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"error", cause,
	)
	return s.partialOrder(order, cause)
}

func (s *OrderService) partialOrder(order *models.Order, cause error) error {
	s.metrics.ObservePartialOrder()
	if err := s.queueClient.EnqueueOrderPartialAlert(queue.OrderPartialAlertPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      cause.Error(),
	}); err != nil {
		logger.Warnw("order_partial_alert_enqueue_failed", "order_id", order.ID, "error", err)
	}
	return &PartialOrderError{OrderID: order.ID, OrderNumber: order.OrderNumber, Err: cause}
}

func (s *OrderService) enqueueStatusNotify(order *models.Order) {
	if order == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusNotify(queue.OrderStatusNotifyPayload{
		OrderID: order.ID,
		Status:  order.Status,
	}); err != nil {
		logger.Warnw("order_status_notify_enqueue_failed",
			"order_id", order.ID,
			"status", order.Status,
			"error", err,
		)
	}
}

// allocateOrderNumber 生成未被占用的订单号
func (s *OrderService) allocateOrderNumber() (string, error) {
	for attempt := 0; attempt < orderNumberMaxAttempts; attempt++ {
		candidate := generateOrderNumber(s.now())
		exists, err := s.orderRepo.ExistsOrderNumber(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		logger.Debugw("order_number_collision", "order_number", candidate, "attempt", attempt+1)
	}
	return "", errOrderNumberExhausted
}

func (s *OrderService) resolveEstimate(orderType string, override int) int {
	if override > 0 {
		return override
	}
	if orderType == constants.OrderTypeDelivery {
		if s.cfg.DeliveryEstimateMinutes > 0 {
			return s.cfg.DeliveryEstimateMinutes
		}
		return 45
	}
	if s.cfg.PickupEstimateMinutes > 0 {
		return s.cfg.PickupEstimateMinutes
	}
	return 20
}

// validateCheckout 按顺序校验：姓名邮箱、订单类型与支付方式、外送地址
func validateCheckout(input SubmitOrderInput) (string, string, CheckoutForm, error) {
	form := CheckoutForm{
		Name:             strings.TrimSpace(input.Form.Name),
		Email:            strings.TrimSpace(input.Form.Email),
		Phone:            strings.TrimSpace(input.Form.Phone),
		Address:          strings.TrimSpace(input.Form.Address),
		City:             strings.TrimSpace(input.Form.City),
		PostalCode:       strings.TrimSpace(input.Form.PostalCode),
		Notes:            strings.TrimSpace(input.Form.Notes),
		EstimatedMinutes: input.Form.EstimatedMinutes,
	}
	if form.Name == "" {
		return "", "", form, newValidationError("name", "is required")
	}
	if form.Email == "" {
		return "", "", form, newValidationError("email", "is required")
	}
	email, err := normalizeEmail(form.Email)
	if err != nil {
		return "", "", form, err
	}
	form.Email = email

	orderType := normalizeOrderType(input.OrderType)
	if !isValidOrderType(orderType) {
		return "", "", form, newValidationError("order_type", "must be pickup or delivery")
	}
	paymentMethod := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if paymentMethod != constants.PaymentMethodCash && paymentMethod != constants.PaymentMethodCard {
		return "", "", form, newValidationError("payment_method", "must be cash or card")
	}

	if orderType == constants.OrderTypeDelivery {
		switch {
		case form.Address == "":
			return "", "", form, newValidationError("address", "is required for delivery")
		case form.City == "":
			return "", "", form, newValidationError("city", "is required for delivery")
		case form.PostalCode == "":
			return "", "", form, newValidationError("postal_code", "is required for delivery")
		}
	}
	if form.EstimatedMinutes < 0 {
		form.EstimatedMinutes = 0
	}
	return orderType, paymentMethod, form, nil
}

func normalizeEmail(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", newValidationError("email", "is not a valid address")
	}
	return normalized, nil
}

func isValidOrderType(orderType string) bool {
	return orderType == constants.OrderTypePickup || orderType == constants.OrderTypeDelivery
}

func buildOrderItems(items []CartItem) []models.OrderItem {
	result := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		result = append(result, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			TotalPrice:  lineTotal(item.UnitPrice, item.Quantity),
			Notes:       item.Notes,
		})
	}
	return result
}

// generateOrderNumber ORD- + 毫秒时间戳后 6 位 + 3 位随机数
func generateOrderNumber(now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return constants.OrderNumberPrefix + millis + randNumeric(3)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
