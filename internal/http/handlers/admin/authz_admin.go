package admin

import (
	handlershared "github.com/ali-baba-kitchen/internal/http/handlers/shared"
	"github.com/ali-baba-kitchen/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAuthzMe 当前管理员的角色
func (h *Handler) GetAuthzMe(c *gin.Context) {
	profileID, ok := handlershared.GetProfileID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetProfileRoles(profileID)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load roles", err)
		return
	}
	response.Success(c, gin.H{
		"profile_id": profileID,
		"roles":      roles,
	})
}
