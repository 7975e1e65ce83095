package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ali-baba-kitchen/internal/cache"
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	dashboardCacheTTL        = 45 * time.Second
	dashboardTopProductLimit = 5
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页当日经营数据，查询失败时各指标降级为零值。
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// DashboardOverview 仪表盘总览
type DashboardOverview struct {
	Date          string                `json:"date"`
	TodayOrders   int64                 `json:"today_orders"`
	TodayRevenue  string                `json:"today_revenue"`
	PendingOrders int64                 `json:"pending_orders"`
	Customers     int64                 `json:"customers"`
	RecentOrders  []OrderView           `json:"recent_orders"`
	TopProducts   []DashboardTopProduct `json:"top_products"`
}

// DashboardTopProduct 当日热销菜品
type DashboardTopProduct struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Orders      int64  `json:"orders"`
	Quantity    int64  `json:"quantity"`
	Amount      string `json:"amount"`
}

// GetOverview 当日总览（按服务器本地时区切日）
func (s *DashboardService) GetOverview(ctx context.Context, now time.Time, forceRefresh bool) *DashboardOverview {
	startAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endAt := startAt.AddDate(0, 0, 1)
	cacheKey := fmt.Sprintf("dashboard:overview:%d", startAt.Unix())

	if !forceRefresh {
		var cached DashboardOverview
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached
		}
	}

	response := &DashboardOverview{
		Date:         startAt.Format("2006-01-02"),
		TodayRevenue: formatMoneyValue(0),
		RecentOrders: []OrderView{},
		TopProducts:  []DashboardTopProduct{},
	}
	degraded := false

	overview, err := s.repo.GetOverview(startAt, endAt)
	if err != nil {
		logger.Warnw("dashboard_overview_load_failed", "error", err)
		degraded = true
	} else {
		response.TodayOrders = overview.OrdersTotal
		response.TodayRevenue = formatMoneyValue(overview.Revenue)
		response.PendingOrders = overview.PendingOrders
		response.Customers = overview.Customers
	}

	recent, err := s.repo.ListRecentOrders(constants.DashboardRecentOrderSize)
	if err != nil {
		logger.Warnw("dashboard_recent_orders_load_failed", "error", err)
		degraded = true
	} else {
		response.RecentOrders = NewOrderViews(recent)
	}

	top, err := s.repo.GetTopProducts(startAt, endAt, dashboardTopProductLimit)
	if err != nil {
		logger.Warnw("dashboard_top_products_load_failed", "error", err)
		degraded = true
	} else {
		for _, row := range top {
			response.TopProducts = append(response.TopProducts, DashboardTopProduct{
				ProductID:   row.ProductID,
				ProductName: row.ProductName,
				Orders:      row.Orders,
				Quantity:    row.Quantity,
				Amount:      formatMoneyValue(row.Amount),
			})
		}
	}

	if !degraded {
		_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	}
	return response
}

func formatMoneyValue(value float64) string {
	return decimal.NewFromFloat(value).Round(2).StringFixed(2)
}
