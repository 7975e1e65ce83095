package public

import (
	"github.com/ali-baba-kitchen/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SetLanguageRequest 语言偏好请求
type SetLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// GetLanguage 读取语言偏好
func (h *Handler) GetLanguage(c *gin.Context) {
	lang := h.PreferenceService.GetLanguage(c.Request.Context(), cartOwner(c))
	response.Success(c, gin.H{"language": lang})
}

// SetLanguage 保存语言偏好
func (h *Handler) SetLanguage(c *gin.Context) {
	var req SetLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "language is required", nil)
		return
	}
	lang, err := h.PreferenceService.SetLanguage(c.Request.Context(), cartOwner(c), req.Language)
	if err != nil {
		respondServiceError(c, err, "failed to save language")
		return
	}
	response.Success(c, gin.H{"language": lang})
}
