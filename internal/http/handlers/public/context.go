package public

import (
	"context"
	"strings"

	"github.com/ali-baba-kitchen/internal/constants"
	handlershared "github.com/ali-baba-kitchen/internal/http/handlers/shared"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondServiceError(c, err, fallbackMsg)
}

func getProfileID(c *gin.Context) (uint, bool) {
	return handlershared.GetProfileID(c)
}

// cartOwner 登录顾客按资料 ID，游客按 X-Cart-Session 请求头
func cartOwner(c *gin.Context) service.CartOwner {
	owner := service.CartOwner{SessionID: strings.TrimSpace(c.GetHeader(constants.HeaderCartSession))}
	if profileID, ok := handlershared.OptionalProfileID(c); ok {
		owner.UserID = profileID
	}
	return owner
}

// resolveLanguage 显式 lang 参数优先，其次已保存偏好，最后 Accept-Language
func (h *Handler) resolveLanguage(ctx context.Context, c *gin.Context) string {
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return service.ResolveLanguage(lang)
	}
	owner := cartOwner(c)
	if h.PreferenceService != nil && (owner.UserID != 0 || owner.SessionID != "") {
		return h.PreferenceService.GetLanguage(ctx, owner)
	}
	return service.ResolveLanguage(c.GetHeader("Accept-Language"))
}
