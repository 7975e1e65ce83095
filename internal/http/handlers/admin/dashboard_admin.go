package admin

import (
	"strconv"
	"time"

	"github.com/ali-baba-kitchen/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview 获取后台仪表盘总览
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	forceRefresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	response.Success(c, h.DashboardService.GetOverview(c.Request.Context(), time.Now(), forceRefresh))
}
