package repository

import (
	"errors"
	"strings"

	"github.com/ali-baba-kitchen/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository 用户资料数据访问接口
type ProfileRepository interface {
	GetByEmail(email string) (*models.Profile, error)
	GetByID(id uint) (*models.Profile, error)
	Create(profile *models.Profile) error
	Update(profile *models.Profile) error
	BumpTokenVersion(id uint) (uint64, error)
	ListCustomers(filter CustomerListFilter) ([]CustomerStatRow, int64, error)
}

// CustomerStatRow 顾客与其订单统计
type CustomerStatRow struct {
	ID         uint
	Email      string
	FullName   string
	Phone      string
	OrderCount int64
	TotalSpent float64
}

// GormProfileRepository GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建用户资料仓库
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// GetByEmail 根据邮箱获取资料
func (r *GormProfileRepository) GetByEmail(email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByID 根据 ID 获取资料
func (r *GormProfileRepository) GetByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建资料
func (r *GormProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// Update 更新资料
func (r *GormProfileRepository) Update(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

// BumpTokenVersion Token 版本自增，返回新版本
func (r *GormProfileRepository) BumpTokenVersion(id uint) (uint64, error) {
	if err := r.db.Model(&models.Profile{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error; err != nil {
		return 0, err
	}
	var version uint64
	if err := r.db.Model(&models.Profile{}).Where("id = ?", id).Pluck("token_version", &version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

// ListCustomers 顾客列表（非管理员），附带订单数与消费总额
func (r *GormProfileRepository) ListCustomers(filter CustomerListFilter) ([]CustomerStatRow, int64, error) {
	query := r.db.Model(&models.Profile{}).Where("profiles.is_admin = ?", false)
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		operator := likeOperatorByDialect(dbDialectName(r.db))
		query = query.Where("(profiles.email "+operator+" ? OR profiles.full_name "+operator+" ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]CustomerStatRow, 0)
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.
		Select("profiles.id, profiles.email, profiles.full_name, profiles.phone, " +
			"COUNT(orders.id) AS order_count, COALESCE(SUM(orders.total), 0) AS total_spent").
		Joins("LEFT JOIN orders ON orders.user_id = profiles.id").
		Group("profiles.id, profiles.email, profiles.full_name, profiles.phone").
		Order("profiles.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
