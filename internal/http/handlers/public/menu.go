package public

import (
	"strconv"
	"strings"

	handlershared "github.com/ali-baba-kitchen/internal/http/handlers/shared"
	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// GetMenuCategories 获取菜单分类
func (h *Handler) GetMenuCategories(c *gin.Context) {
	lang := h.resolveLanguage(c.Request.Context(), c)
	response.Success(c, h.MenuService.ListCategories(c.Request.Context(), lang))
}

// GetMenuProducts 获取菜品列表，可按分类与关键字过滤
func (h *Handler) GetMenuProducts(c *gin.Context) {
	query := service.MenuQuery{
		Search: strings.TrimSpace(c.Query("q")),
		Lang:   h.resolveLanguage(c.Request.Context(), c),
	}
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		categoryID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid category_id", nil)
			return
		}
		query.CategoryID = uint(categoryID)
	}
	response.Success(c, h.MenuService.ListProducts(c.Request.Context(), query))
}

// GetFeaturedProducts 获取推荐菜品
func (h *Handler) GetFeaturedProducts(c *gin.Context) {
	lang := h.resolveLanguage(c.Request.Context(), c)
	response.Success(c, h.MenuService.ListFeatured(c.Request.Context(), lang))
}

// GetMenuProduct 获取菜品详情
func (h *Handler) GetMenuProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	product, err := h.MenuService.GetProduct(id, h.resolveLanguage(c.Request.Context(), c))
	if err != nil {
		respondServiceError(c, err, "failed to load product")
		return
	}
	response.Success(c, product)
}
