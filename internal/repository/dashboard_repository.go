package repository

import (
	"time"

	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	ListRecentOrders(limit int) ([]models.Order, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal   int64
	Revenue       float64
	PendingOrders int64
	Customers     int64
}

// DashboardProductRankingRow 菜品销量排行原始行
type DashboardProductRankingRow struct {
	ProductID   uint
	ProductName string
	Orders      int64
	Quantity    int64
	Amount      float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetOverview 获取区间内订单数与营业额、当前待处理订单数与顾客总数
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().
		Where("status <> ?", constants.OrderStatusCancelled).
		Select("COALESCE(SUM(total), 0)").
		Scan(&result.Revenue).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Order{}).
		Where("status = ?", constants.OrderStatusPending).
		Count(&result.PendingOrders).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Profile{}).
		Where("is_admin = ?", false).
		Count(&result.Customers).Error; err != nil {
		return result, err
	}
	return result, nil
}

// ListRecentOrders 最近订单（含订单项）
func (r *GormDashboardRepository) ListRecentOrders(limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = constants.DashboardRecentOrderSize
	}
	var orders []models.Order
	if err := r.db.Preload("Items").
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetTopProducts 区间内销量排行（不含已拒单）
func (r *GormDashboardRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardProductRankingRow, 0)
	if err := r.db.Table("order_items AS oi").
		Select("oi.product_id AS product_id, MAX(oi.product_name) AS product_name, "+
			"COUNT(DISTINCT oi.order_id) AS orders, COALESCE(SUM(oi.quantity), 0) AS quantity, "+
			"COALESCE(SUM(oi.total_price), 0) AS amount").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at >= ? AND o.created_at < ? AND o.status <> ?", startAt, endAt, constants.OrderStatusCancelled).
		Group("oi.product_id").
		Order("quantity DESC, amount DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
