package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// JSON 类型定义，用于存储多语言内容
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return nil
	}
}

// Localized 取指定语言的文本，缺失时依次回退 en 与任意非空值
func (j JSON) Localized(lang string) string {
	if len(j) == 0 {
		return ""
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if text, ok := j[lang].(string); ok && strings.TrimSpace(text) != "" {
		return text
	}
	if text, ok := j["en"].(string); ok && strings.TrimSpace(text) != "" {
		return text
	}
	for _, raw := range j {
		if text, ok := raw.(string); ok && strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}

// Category 菜单分类表
type Category struct {
	ID              uint           `gorm:"primarykey" json:"id"`                            // 主键
	NameJSON        JSON           `gorm:"type:json;not null" json:"name"`                  // 多语言名称
	DescriptionJSON JSON           `gorm:"type:json" json:"description"`                    // 多语言描述
	IsActive        bool           `gorm:"not null;default:true;index" json:"is_active"`    // 是否启用
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`               // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                      // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
