package shared

import (
	"errors"

	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Msg    string
}

// ServiceErrorRules 各接口共用的业务错误映射
var ServiceErrorRules = []MappedError{
	{Target: service.ErrEmptyCart, Code: response.CodeBadRequest, Msg: "cart is empty"},
	{Target: service.ErrInvalidTransition, Code: response.CodeConflict, Msg: "order status does not allow this action"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Msg: "order not found"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Msg: "product not found"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Msg: "not found"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Msg: "invalid email or password"},
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Msg: "invalid token"},
	{Target: service.ErrUnauthorized, Code: response.CodeUnauthorized, Msg: "unauthorized"},
	{Target: service.ErrEmailExists, Code: response.CodeBadRequest, Msg: "email already registered"},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Msg: ""},
	{Target: service.ErrExternalService, Code: response.CodeServiceUnavailable, Msg: "service temporarily unavailable, please try again"},
}

// RespondServiceError 按映射表输出业务错误，未知错误记录日志后返回 fallback。
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	RespondMappedError(c, err, ServiceErrorRules, response.CodeInternal, fallbackMsg)
}

// RespondMappedError 按给定映射表输出错误
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackMsg string) {
	var partialErr *service.PartialOrderError
	if errors.As(err, &partialErr) {
		RequestLog(c).Errorw("order_partial_saved",
			"order_id", partialErr.OrderID,
			"order_number", partialErr.OrderNumber,
			"error", partialErr.Err,
		)
		response.ErrorWithData(c, response.CodeInternal,
			"order was received but its items could not be saved, please contact the restaurant",
			gin.H{"order_number": partialErr.OrderNumber},
		)
		return
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		response.ErrorWithData(c, response.CodeBadRequest, validationErr.Error(), gin.H{"field": validationErr.Field})
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			msg := rule.Msg
			if msg == "" {
				msg = err.Error()
			}
			if rule.Code >= response.CodeInternal {
				// 下游故障仍需记录原始错误
				RespondError(c, rule.Code, msg, err)
				return
			}
			response.Error(c, rule.Code, msg)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackMsg, err)
}
