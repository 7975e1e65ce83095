package public

import (
	"context"
	"time"

	handlershared "github.com/ali-baba-kitchen/internal/http/handlers/shared"
	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewOrderRequest 试算请求
type PreviewOrderRequest struct {
	OrderType string `json:"order_type"`
}

// SubmitOrderRequest 下单请求
type SubmitOrderRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Notes         string `json:"notes"`
	OrderType     string `json:"order_type"`
	PaymentMethod string `json:"payment_method"`
}

// PreviewOrder 按订单类型试算购物车金额
func (h *Handler) PreviewOrder(c *gin.Context) {
	var req PreviewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	view, err := h.CartService.Get(c.Request.Context(), cartOwner(c), req.OrderType)
	if err != nil {
		respondServiceError(c, err, "failed to preview order")
		return
	}
	totals, err := h.OrderService.PreviewTotals(view.CartSnapshot, req.OrderType)
	if err != nil {
		respondServiceError(c, err, "failed to preview order")
		return
	}
	response.Success(c, gin.H{
		"order_type":  req.OrderType,
		"total_items": view.TotalItemCount,
		"totals":      totals,
	})
}

// SubmitOrder 提交订单
func (h *Handler) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}
	owner := cartOwner(c)
	cart, release, err := h.CartService.Open(c.Request.Context(), owner)
	if err != nil {
		respondServiceError(c, err, "failed to submit order")
		return
	}
	defer release()

	order, err := h.OrderService.SubmitOrder(c.Request.Context(), service.SubmitOrderInput{
		Cart: cart,
		Form: service.CheckoutForm{
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			Notes:      req.Notes,
		},
		OrderType:     req.OrderType,
		PaymentMethod: req.PaymentMethod,
		CustomerID:    owner.UserID,
	})
	if err != nil {
		respondServiceError(c, err, "failed to submit order")
		return
	}
	response.Success(c, service.NewOrderView(order))
}

// LookupGuestOrder 游客凭订单号与邮箱查询订单
func (h *Handler) LookupGuestOrder(c *gin.Context) {
	order, err := h.OrderService.LookupGuestOrder(c.Param("order_number"), c.Query("email"))
	if err != nil {
		respondServiceError(c, err, "failed to load order")
		return
	}
	response.Success(c, service.NewOrderView(order))
}

// ListMyOrders 我的订单
func (h *Handler) ListMyOrders(c *gin.Context) {
	profileID, ok := getProfileID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	orders, total, err := h.OrderService.ListCustomerOrders(profileID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "failed to load orders")
		return
	}
	response.SuccessWithPage(c, service.NewOrderViews(orders), response.BuildPagination(page, pageSize, total))
}

// GetMyOrder 我的订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	profileID, ok := getProfileID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetCustomerOrder(profileID, c.Param("order_number"))
	if err != nil {
		respondServiceError(c, err, "failed to load order")
		return
	}
	response.Success(c, service.NewOrderView(order))
}

// StreamMyOrders 以 SSE 推送我的订单列表变化
func (h *Handler) StreamMyOrders(c *gin.Context) {
	profileID, ok := getProfileID(c)
	if !ok {
		return
	}
	keepAlive := time.Duration(h.Config.Realtime.KeepAliveSecond) * time.Second
	handlershared.StreamOrderSnapshots(c, keepAlive, func(ctx context.Context, sink service.OrderSink) error {
		return h.OrderSyncService.WatchCustomer(ctx, profileID, sink)
	})
}
