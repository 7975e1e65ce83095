package public

import (
	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求，未传数量时按 1 处理
type AddCartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity"`
	Notes     string `json:"notes"`
}

// UpdateCartItemRequest 修改数量请求，数量小于等于 0 时移除
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.CartService.Get(c.Request.Context(), cartOwner(c), c.Query("order_type"))
	if err != nil {
		respondServiceError(c, err, "failed to load cart")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入菜品
func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "product_id is required", nil)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	view, err := h.CartService.AddItem(c.Request.Context(), cartOwner(c), service.AddCartItemInput{
		ProductID: req.ProductID,
		Quantity:  quantity,
		Notes:     req.Notes,
		Lang:      h.resolveLanguage(c.Request.Context(), c),
	})
	if err != nil {
		respondServiceError(c, err, "failed to add item")
		return
	}
	response.Success(c, view)
}

// UpdateCartItem 修改购物车行数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "quantity is required", nil)
		return
	}
	view, err := h.CartService.UpdateQuantity(c.Request.Context(), cartOwner(c), c.Param("line_id"), *req.Quantity)
	if err != nil {
		respondServiceError(c, err, "failed to update item")
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 移除购物车行
func (h *Handler) RemoveCartItem(c *gin.Context) {
	view, err := h.CartService.RemoveItem(c.Request.Context(), cartOwner(c), c.Param("line_id"))
	if err != nil {
		respondServiceError(c, err, "failed to remove item")
		return
	}
	response.Success(c, view)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	view, err := h.CartService.Clear(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondServiceError(c, err, "failed to clear cart")
		return
	}
	response.Success(c, view)
}
