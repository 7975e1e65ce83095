package public

import (
	"time"

	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
)

// SignUpRequest 注册请求
type SignUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

// SignInRequest 登录请求
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileResponse 当前用户资料
type ProfileResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	IsAdmin  bool   `json:"is_admin"`
}

func newProfileResponse(profile *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:       profile.ID,
		Email:    profile.Email,
		FullName: profile.FullName,
		Phone:    profile.Phone,
		IsAdmin:  profile.IsAdmin,
	}
}

func authPayload(result *service.AuthResult) gin.H {
	return gin.H{
		"user":       newProfileResponse(result.Profile),
		"token":      result.Token,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
	}
}

// SignUp 顾客注册
func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "email, password and full_name are required", nil)
		return
	}
	result, err := h.AuthService.SignUp(req.Email, req.Password, req.FullName)
	if err != nil {
		respondServiceError(c, err, "sign up failed")
		return
	}
	requestLog(c).Infow("profile_signed_up", "profile_id", result.Profile.ID)
	response.Success(c, authPayload(result))
}

// SignIn 登录
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "email and password are required", nil)
		return
	}
	result, err := h.AuthService.SignIn(req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "sign in failed")
		return
	}
	response.Success(c, authPayload(result))
}

// SignOut 登出并使已签发的令牌失效
func (h *Handler) SignOut(c *gin.Context) {
	profileID, ok := getProfileID(c)
	if !ok {
		return
	}
	if err := h.AuthService.SignOut(profileID); err != nil {
		respondServiceError(c, err, "sign out failed")
		return
	}
	response.Success(c, gin.H{"signed_out": true})
}

// GetCurrentUser 当前登录用户
func (h *Handler) GetCurrentUser(c *gin.Context) {
	profileID, ok := getProfileID(c)
	if !ok {
		return
	}
	profile, err := h.AuthService.CurrentUser(profileID)
	if err != nil {
		respondServiceError(c, err, "failed to load profile")
		return
	}
	response.Success(c, newProfileResponse(profile))
}
