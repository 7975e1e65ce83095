package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 菜品表
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                   // 主键
	CategoryID      uint           `gorm:"not null;index" json:"category_id"`                      // 分类ID
	NameJSON        JSON           `gorm:"type:json;not null" json:"name"`                         // 多语言名称（en/de）
	DescriptionJSON JSON           `gorm:"type:json" json:"description"`                           // 多语言描述
	Price           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`     // 单价
	ImageURL        string         `gorm:"type:varchar(500);default:''" json:"image_url"`          // 图片地址
	IsAvailable     bool           `gorm:"not null;default:true;index" json:"is_available"`        // 是否可售
	IsFeatured      bool           `gorm:"not null;default:false;index" json:"is_featured"`        // 是否推荐
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`                      // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                             // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间

	// 关联
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// DisplayName 按语言取名称，缺失时回退英文
func (p Product) DisplayName(lang string) string {
	return p.NameJSON.Localized(lang)
}
