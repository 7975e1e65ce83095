package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/realtime"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
// 订单与订单项是两次独立写入，调用方决定失败后的补偿策略。
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	Delete(ctx context.Context, order *models.Order) error
	ExistsOrderNumber(orderNumber string) (bool, error)
	GetByID(id uint) (*models.Order, error)
	GetByOrderNumber(orderNumber string) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatusIf(ctx context.Context, order *models.Order, status string, updates map[string]interface{}) (bool, error)
}

// GormOrderRepository GORM 实现，写入提交后发布变更事件
type GormOrderRepository struct {
	db        *gorm.DB
	publisher realtime.Publisher
}

// NewOrderRepository 创建订单仓库，publisher 可为空
func NewOrderRepository(db *gorm.DB, publisher realtime.Publisher) *GormOrderRepository {
	return &GormOrderRepository{db: db, publisher: publisher}
}

// Create 仅写入订单主记录
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return err
	}
	r.publish(ctx, realtime.ChangeEvent{
		Table:      constants.ChangeTableOrders,
		Type:       constants.ChangeTypeInsert,
		RecordID:   order.ID,
		OrderID:    order.ID,
		CustomerID: customerIDOf(order),
		Status:     order.Status,
	})
	return nil
}

// CreateItems 写入订单项
func (r *GormOrderRepository) CreateItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if order == nil || len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}
	r.publish(ctx, realtime.ChangeEvent{
		Table:      constants.ChangeTableOrderItems,
		Type:       constants.ChangeTypeInsert,
		RecordID:   items[0].ID,
		OrderID:    order.ID,
		CustomerID: customerIDOf(order),
		Status:     order.Status,
	})
	return nil
}

// Delete 删除订单及其订单项（仅用于明细写入失败后的补偿）
func (r *GormOrderRepository) Delete(ctx context.Context, order *models.Order) error {
	if order == nil || order.ID == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, order.ID).Error
	})
	if err != nil {
		return err
	}
	r.publish(ctx, realtime.ChangeEvent{
		Table:      constants.ChangeTableOrders,
		Type:       constants.ChangeTypeDelete,
		RecordID:   order.ID,
		OrderID:    order.ID,
		CustomerID: customerIDOf(order),
	})
	return nil
}

// ExistsOrderNumber 订单号是否已被占用
func (r *GormOrderRepository) ExistsOrderNumber(orderNumber string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("order_number = ?", orderNumber).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByID 根据 ID 获取订单（含订单项）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNumber 根据订单号获取订单（含订单项）
func (r *GormOrderRepository) GetByOrderNumber(orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListAdmin 管理端订单列表，新订单在前
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNumber != "" {
		query = query.Where("order_number = ?", filter.OrderNumber)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByUser 顾客自己的订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatusIf 仅当订单仍处于 order.Status 时更新（比较并交换），返回是否命中
func (r *GormOrderRepository) UpdateStatusIf(ctx context.Context, order *models.Order, status string, updates map[string]interface{}) (bool, error) {
	if order == nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.publish(ctx, realtime.ChangeEvent{
		Table:      constants.ChangeTableOrders,
		Type:       constants.ChangeTypeUpdate,
		RecordID:   order.ID,
		OrderID:    order.ID,
		CustomerID: customerIDOf(order),
		Status:     status,
	})
	return true, nil
}

func (r *GormOrderRepository) publish(ctx context.Context, event realtime.ChangeEvent) {
	if r.publisher == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		logger.Warnw("order_change_publish_failed",
			"table", event.Table,
			"type", event.Type,
			"order_id", event.OrderID,
			"error", err,
		)
	}
}

func customerIDOf(order *models.Order) uint {
	if order == nil || order.UserID == nil {
		return 0
	}
	return *order.UserID
}
