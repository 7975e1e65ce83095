package models

import (
	"strings"

	"github.com/ali-baba-kitchen/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认管理员资料
func InitDefaultAdmin(email, password, fullName string) error {
	var count int64
	if err := DB.Model(&Profile{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = "admin@ali-baba.local"
	}
	defaultPassword := password == ""
	if defaultPassword {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var existing Profile
	err = DB.Where("email = ?", email).Limit(1).Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID != 0 {
		// 已注册的顾客账号直接提升为管理员
		if err := DB.Model(&existing).Update("is_admin", true).Error; err != nil {
			return err
		}
		logger.Warnw("default_admin_promoted", "email", email)
		return nil
	}

	admin := Profile{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		IsAdmin:      true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if defaultPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email, "password", password)
		logger.Warnw("default_admin_password_change_required", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return nil
}
