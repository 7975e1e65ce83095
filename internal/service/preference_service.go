package service

import (
	"context"
	"strings"

	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/kvstore"
	"github.com/ali-baba-kitchen/internal/logger"
)

// PreferenceService 界面语言偏好
type PreferenceService struct {
	storage kvstore.Store
}

// NewPreferenceService 创建偏好服务
func NewPreferenceService(storage kvstore.Store) *PreferenceService {
	return &PreferenceService{storage: storage}
}

// GetLanguage 读取语言偏好，未设置或读取失败时返回默认语言
func (s *PreferenceService) GetLanguage(ctx context.Context, owner CartOwner) string {
	key, err := ownerKey(constants.KVKeyLanguagePrefix, owner)
	if err != nil {
		return constants.LanguageDefault
	}
	value, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		logger.Warnw("preference_language_load_failed", "key", key, "error", err)
		return constants.LanguageDefault
	}
	if !ok || !IsSupportedLanguage(value) {
		return constants.LanguageDefault
	}
	return value
}

// SetLanguage 保存语言偏好
func (s *PreferenceService) SetLanguage(ctx context.Context, owner CartOwner, lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !IsSupportedLanguage(lang) {
		return "", newValidationError("language", "must be en or de")
	}
	key, err := ownerKey(constants.KVKeyLanguagePrefix, owner)
	if err != nil {
		return "", err
	}
	if err := s.storage.Set(ctx, key, lang); err != nil {
		return "", newExternalError("save language", err)
	}
	return lang, nil
}

// IsSupportedLanguage 是否为支持的语言
func IsSupportedLanguage(lang string) bool {
	for _, supported := range constants.SupportedLanguages {
		if lang == supported {
			return true
		}
	}
	return false
}

// ResolveLanguage 规范化语言参数，不支持时回落默认语言
func ResolveLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexAny(lang, "-_,;"); idx > 0 {
		lang = lang[:idx]
	}
	if IsSupportedLanguage(lang) {
		return lang
	}
	return constants.LanguageDefault
}
