package kvstore

import (
	"context"

	"github.com/ali-baba-kitchen/internal/repository"
)

// DBStore 基于 kv_entries 表的存储
type DBStore struct {
	repo repository.KVRepository
}

// NewDBStore 创建数据库存储
func NewDBStore(repo repository.KVRepository) *DBStore {
	return &DBStore{repo: repo}
}

// Get 读取
func (s *DBStore) Get(_ context.Context, key string) (string, bool, error) {
	entry, err := s.repo.GetByKey(key)
	if err != nil {
		return "", false, err
	}
	if entry == nil {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set 写入
func (s *DBStore) Set(_ context.Context, key, value string) error {
	return s.repo.Upsert(key, value)
}

// Remove 删除
func (s *DBStore) Remove(_ context.Context, key string) error {
	return s.repo.Delete(key)
}
