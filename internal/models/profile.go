package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile 用户资料表（顾客与管理员共用，IsAdmin 区分角色）
type Profile struct {
	ID           uint           `gorm:"primarykey" json:"id"`                         // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`            // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                            // 密码哈希（不返回给前端）
	FullName     string         `gorm:"default:''" json:"full_name"`                  // 姓名
	Phone        string         `gorm:"type:varchar(50);default:''" json:"phone"`     // 电话
	IsAdmin      bool           `gorm:"not null;default:false;index" json:"is_admin"` // 是否管理员
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                  // Token 版本（用于登出全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                                // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}
