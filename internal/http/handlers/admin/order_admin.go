package admin

import (
	"context"
	"strings"
	"time"

	handlershared "github.com/ali-baba-kitchen/internal/http/handlers/shared"
	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/repository"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// AcceptOrderRequest 接单请求
type AcceptOrderRequest struct {
	DeliveryTime string `json:"delivery_time"`
	AdminNotes   string `json:"admin_notes"`
}

// RejectOrderRequest 拒单请求
type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

// GetAdminOrders 订单列表
func (h *Handler) GetAdminOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	orders, total, err := h.OrderService.ListAdminOrders(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      c.Query("status"),
		OrderNumber: strings.ToUpper(strings.TrimSpace(c.Query("order_number"))),
	})
	if err != nil {
		respondServiceError(c, err, "failed to load orders")
		return
	}
	response.SuccessWithPage(c, service.NewOrderViews(orders), response.BuildPagination(page, pageSize, total))
}

// GetAdminOrder 订单详情
func (h *Handler) GetAdminOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetAdminOrder(orderID)
	if err != nil {
		respondServiceError(c, err, "failed to load order")
		return
	}
	response.Success(c, service.NewOrderView(order))
}

// AcceptOrder 接单
func (h *Handler) AcceptOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req AcceptOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	order, err := h.OrderService.Accept(c.Request.Context(), orderID, req.DeliveryTime, req.AdminNotes)
	if err != nil {
		respondServiceError(c, err, "failed to accept order")
		return
	}
	requestLog(c).Infow("admin_order_accepted", "order_id", order.ID, "order_number", order.OrderNumber)
	response.Success(c, service.NewOrderView(order))
}

// RejectOrder 拒单
func (h *Handler) RejectOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	order, err := h.OrderService.Reject(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		respondServiceError(c, err, "failed to reject order")
		return
	}
	requestLog(c).Infow("admin_order_rejected", "order_id", order.ID, "order_number", order.OrderNumber)
	response.Success(c, service.NewOrderView(order))
}

// AdvanceOrder 推进到下一状态，已送达订单保持不变
func (h *Handler) AdvanceOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, changed, err := h.OrderService.Advance(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "failed to advance order")
		return
	}
	response.Success(c, gin.H{
		"order":   service.NewOrderView(order),
		"changed": changed,
	})
}

// StreamAdminOrders 以 SSE 推送全部订单列表变化
func (h *Handler) StreamAdminOrders(c *gin.Context) {
	keepAlive := time.Duration(h.Config.Realtime.KeepAliveSecond) * time.Second
	handlershared.StreamOrderSnapshots(c, keepAlive, func(ctx context.Context, sink service.OrderSink) error {
		return h.OrderSyncService.WatchAll(ctx, sink)
	})
}

func parseOrderID(c *gin.Context) (uint, bool) {
	orderID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return 0, false
	}
	return orderID, true
}
