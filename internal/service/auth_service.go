package service

import (
	"context"
	"strings"
	"time"

	"github.com/ali-baba-kitchen/internal/cache"
	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 认证服务（顾客与管理员共用账号体系）
type AuthService struct {
	cfg         *config.Config
	profileRepo repository.ProfileRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, profileRepo repository.ProfileRepository) *AuthService {
	return &AuthService{
		cfg:         cfg,
		profileRepo: profileRepo,
	}
}

// JWTClaims JWT 声明
type JWTClaims struct {
	ProfileID    uint   `json:"profile_id"`
	Email        string `json:"email"`
	IsAdmin      bool   `json:"is_admin"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// AuthResult 登录/注册结果
type AuthResult struct {
	Profile   *models.Profile
	Token     string
	ExpiresAt time.Time
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(profile *models.Profile) (string, time.Time, error) {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 168
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		ProfileID:    profile.ID,
		Email:        profile.Email,
		IsAdmin:      profile.IsAdmin,
		TokenVersion: profile.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// SignUp 注册顾客账号并直接登录
func (s *AuthService) SignUp(email, password, fullName string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, newValidationError("full_name", "is required")
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, password); err != nil {
		return nil, err
	}

	exist, err := s.profileRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrEmailExists
	}

	hashed, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	profile := &models.Profile{
		Email:        normalized,
		PasswordHash: hashed,
		FullName:     fullName,
		LastLoginAt:  &now,
	}
	if err := s.profileRepo.Create(profile); err != nil {
		return nil, err
	}
	logger.Infow("auth_sign_up", "profile_id", profile.ID)
	return s.issue(profile)
}

// SignIn 邮箱密码登录
func (s *AuthService) SignIn(email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	profile, err := s.profileRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(profile.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	profile.LastLoginAt = &now
	if err := s.profileRepo.Update(profile); err != nil {
		return nil, err
	}
	return s.issue(profile)
}

// SignOut 提升 token 版本，使该账号已签发的 token 全部失效
func (s *AuthService) SignOut(profileID uint) error {
	if profileID == 0 {
		return ErrUnauthorized
	}
	version, err := s.profileRepo.BumpTokenVersion(profileID)
	if err != nil {
		return err
	}
	if err := cache.DelProfileAuthState(context.Background(), profileID); err != nil {
		logger.Warnw("auth_state_cache_delete_failed", "profile_id", profileID, "error", err)
	}
	logger.Infow("auth_sign_out", "profile_id", profileID, "token_version", version)
	return nil
}

// CurrentUser 当前登录用户
func (s *AuthService) CurrentUser(profileID uint) (*models.Profile, error) {
	if profileID == 0 {
		return nil, ErrUnauthorized
	}
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// ResolveAuthState 读取鉴权快照，缓存未命中时回源数据库
func (s *AuthService) ResolveAuthState(ctx context.Context, profileID uint) (*cache.ProfileAuthState, error) {
	state, hit, err := cache.GetProfileAuthState(ctx, profileID)
	if err != nil {
		logger.Debugw("auth_state_cache_get_failed", "profile_id", profileID, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUnauthorized
	}
	state = cache.BuildProfileAuthState(profile)
	if err := cache.SetProfileAuthState(ctx, state); err != nil {
		logger.Debugw("auth_state_cache_set_failed", "profile_id", profileID, "error", err)
	}
	return state, nil
}

func (s *AuthService) issue(profile *models.Profile) (*AuthResult, error) {
	token, expiresAt, err := s.GenerateJWT(profile)
	if err != nil {
		return nil, err
	}
	_ = cache.SetProfileAuthState(context.Background(), cache.BuildProfileAuthState(profile))
	return &AuthResult{Profile: profile, Token: token, ExpiresAt: expiresAt}, nil
}
