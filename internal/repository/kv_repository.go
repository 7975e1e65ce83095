package repository

import (
	"errors"
	"time"

	"github.com/ali-baba-kitchen/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVRepository 键值存储数据访问接口
type KVRepository interface {
	GetByKey(key string) (*models.KVEntry, error)
	Upsert(key, value string) error
	Delete(key string) error
}

// GormKVRepository GORM 实现
type GormKVRepository struct {
	db *gorm.DB
}

// NewKVRepository 创建键值仓库
func NewKVRepository(db *gorm.DB) *GormKVRepository {
	return &GormKVRepository{db: db}
}

// GetByKey 获取键值
func (r *GormKVRepository) GetByKey(key string) (*models.KVEntry, error) {
	var entry models.KVEntry
	if err := r.db.Where("key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Upsert 更新或创建键值
func (r *GormKVRepository) Upsert(key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Delete 删除键值，不存在时不报错
func (r *GormKVRepository) Delete(key string) error {
	return r.db.Where("key = ?", key).Delete(&models.KVEntry{}).Error
}
