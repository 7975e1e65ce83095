package admin

import (
	"strings"

	handlershared "github.com/ali-baba-kitchen/internal/http/handlers/shared"
	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetCustomers 顾客列表
func (h *Handler) GetCustomers(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	customers, total, err := h.CustomerService.ListCustomers(repository.CustomerListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondServiceError(c, err, "failed to load customers")
		return
	}
	response.SuccessWithPage(c, customers, response.BuildPagination(page, pageSize, total))
}
