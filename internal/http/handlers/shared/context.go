package shared

import (
	"github.com/ali-baba-kitchen/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextProfileID = "profile_id"
	ContextIsAdmin   = "is_admin"
	ContextRequestID = "request_id"
)

// GetProfileID 读取已认证资料 ID，缺失时直接写入 401 响应。
func GetProfileID(c *gin.Context) (uint, bool) {
	id, ok := OptionalProfileID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return 0, false
	}
	return id, true
}

// OptionalProfileID 读取资料 ID，不写响应。
func OptionalProfileID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextProfileID)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
