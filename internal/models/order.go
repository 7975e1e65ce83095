package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                        // 主键
	OrderNumber      string     `gorm:"uniqueIndex;type:varchar(32);not null" json:"order_number"`   // 订单编号
	UserID           *uint      `gorm:"index" json:"user_id,omitempty"`                              // 顾客ID（游客订单为空）
	CustomerName     string     `gorm:"type:varchar(200);not null" json:"customer_name"`             // 顾客姓名
	CustomerEmail    string     `gorm:"type:varchar(255);index;not null" json:"customer_email"`      // 顾客邮箱
	CustomerPhone    string     `gorm:"type:varchar(50);default:''" json:"customer_phone"`           // 顾客电话
	OrderType        string     `gorm:"type:varchar(20);not null" json:"order_type"`                 // 订单类型（pickup/delivery）
	PaymentMethod    string     `gorm:"type:varchar(20);not null" json:"payment_method"`             // 支付方式（cash/card）
	PaymentStatus    string     `gorm:"type:varchar(20);not null" json:"payment_status"`             // 支付状态
	Status           string     `gorm:"type:varchar(20);index;not null" json:"status"`               // 订单状态
	Subtotal         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`       // 小计
	DeliveryFee      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`   // 配送费
	Total            Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total"`          // 合计（创建后不再重算）
	DeliveryAddress  string     `gorm:"type:varchar(500);default:''" json:"delivery_address"`        // 配送地址
	DeliveryCity     string     `gorm:"type:varchar(200);default:''" json:"delivery_city"`           // 配送城市
	DeliveryPostal   string     `gorm:"type:varchar(20);default:''" json:"delivery_postal_code"`     // 邮编
	Notes            string     `gorm:"type:text" json:"notes"`                                      // 顾客备注
	AdminNotes       string     `gorm:"type:text" json:"admin_notes"`                                // 管理员备注
	RejectionReason  string     `gorm:"type:text" json:"rejection_reason"`                           // 拒单原因
	DeliveryTime     string     `gorm:"type:varchar(50);default:''" json:"delivery_time"`            // 预计送达/取餐时间
	EstimatedMinutes int        `gorm:"not null;default:0" json:"estimated_time"`                    // 预计耗时（分钟）
	ConfirmedAt      *time.Time `json:"confirmed_at"`                                                // 接单时间
	CancelledAt      *time.Time `json:"cancelled_at"`                                                // 拒单时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt        time.Time  `gorm:"index" json:"updated_at"`                                     // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// HasAnomaly 订单已落库但没有任何明细（明细写入失败遗留）
func (o Order) HasAnomaly() bool {
	return len(o.Items) == 0
}
