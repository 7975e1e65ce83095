package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/ali-baba-kitchen/internal/kvstore"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem 购物车行，(ProductID, Notes) 相同视为同一行
type CartItem struct {
	ID        string       `json:"id"`
	ProductID uint         `json:"product_id"`
	Name      string       `json:"name"`
	UnitPrice models.Money `json:"unit_price"`
	Quantity  int          `json:"quantity"`
	Notes     string       `json:"notes,omitempty"`
}

// NewCartItem 加入购物车的输入（行 ID 由存储分配）
type NewCartItem struct {
	ProductID uint
	Name      string
	UnitPrice models.Money
	Quantity  int
	Notes     string
}

// CartSnapshot 购物车只读快照
type CartSnapshot struct {
	Items          []CartItem   `json:"items"`
	TotalItemCount int          `json:"total_items"`
	Subtotal       models.Money `json:"subtotal"`
}

// CartStore 绑定单个存储键的购物车
type CartStore struct {
	mu      sync.RWMutex
	storage kvstore.Store
	key     string
	items   []CartItem
}

// OpenCartStore 从存储加载购物车，数据损坏时以空购物车启动
func OpenCartStore(ctx context.Context, storage kvstore.Store, key string) (*CartStore, error) {
	store := &CartStore{storage: storage, key: key}
	raw, ok, err := storage.Get(ctx, key)
	if err != nil {
		return nil, newExternalError("load cart", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return store, nil
	}
	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warnw("cart_snapshot_corrupt", "key", key, "error", err)
		return store, nil
	}
	store.items = sanitizeCartItems(items)
	return store, nil
}

// AddItem 加入菜品，同菜品同备注合并数量
func (s *CartStore) AddItem(ctx context.Context, input NewCartItem) (CartSnapshot, error) {
	if input.Quantity <= 0 {
		return CartSnapshot{}, newValidationError("quantity", "must be positive")
	}
	notes := strings.TrimSpace(input.Notes)
	return s.mutate(ctx, func(items []CartItem) []CartItem {
		for i := range items {
			if items[i].ProductID == input.ProductID && items[i].Notes == notes {
				items[i].Quantity += input.Quantity
				return items
			}
		}
		return append(items, CartItem{
			ID:        uuid.NewString(),
			ProductID: input.ProductID,
			Name:      input.Name,
			UnitPrice: input.UnitPrice,
			Quantity:  input.Quantity,
			Notes:     notes,
		})
	})
}

// RemoveItem 删除购物车行，不存在时不做处理
func (s *CartStore) RemoveItem(ctx context.Context, lineID string) (CartSnapshot, error) {
	return s.mutate(ctx, func(items []CartItem) []CartItem {
		return removeCartLine(items, lineID)
	})
}

// UpdateQuantity 设置行数量，数量 <= 0 时删除该行
func (s *CartStore) UpdateQuantity(ctx context.Context, lineID string, quantity int) (CartSnapshot, error) {
	return s.mutate(ctx, func(items []CartItem) []CartItem {
		if quantity <= 0 {
			return removeCartLine(items, lineID)
		}
		for i := range items {
			if items[i].ID == lineID {
				items[i].Quantity = quantity
				break
			}
		}
		return items
	})
}

// Clear 清空购物车
func (s *CartStore) Clear(ctx context.Context) (CartSnapshot, error) {
	return s.mutate(ctx, func([]CartItem) []CartItem {
		return nil
	})
}

// Snapshot 返回当前购物车副本
func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return buildCartSnapshot(s.items)
}

// Key 存储键
func (s *CartStore) Key() string {
	return s.key
}

// mutate 在副本上执行变更，写回存储成功后才替换内存状态
func (s *CartStore) mutate(ctx context.Context, apply func([]CartItem) []CartItem) (CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := apply(cloneCartItems(s.items))
	if err := s.persist(ctx, next); err != nil {
		return buildCartSnapshot(s.items), err
	}
	s.items = next
	return buildCartSnapshot(next), nil
}

func (s *CartStore) persist(ctx context.Context, items []CartItem) error {
	if len(items) == 0 {
		if err := s.storage.Remove(ctx, s.key); err != nil {
			return newExternalError("save cart", err)
		}
		return nil
	}
	body, err := json.Marshal(items)
	if err != nil {
		return newExternalError("encode cart", err)
	}
	if err := s.storage.Set(ctx, s.key, string(body)); err != nil {
		return newExternalError("save cart", err)
	}
	return nil
}

func buildCartSnapshot(items []CartItem) CartSnapshot {
	copied := cloneCartItems(items)
	if copied == nil {
		copied = []CartItem{}
	}
	count := 0
	for _, item := range copied {
		count += item.Quantity
	}
	totals := ComputeTotals(copied, "", decimal.Zero, decimal.Zero)
	return CartSnapshot{
		Items:          copied,
		TotalItemCount: count,
		Subtotal:       totals.Subtotal,
	}
}

func cloneCartItems(items []CartItem) []CartItem {
	if items == nil {
		return nil
	}
	copied := make([]CartItem, len(items))
	copy(copied, items)
	return copied
}

func removeCartLine(items []CartItem, lineID string) []CartItem {
	result := items[:0]
	for _, item := range items {
		if item.ID != lineID {
			result = append(result, item)
		}
	}
	return result
}

func sanitizeCartItems(items []CartItem) []CartItem {
	result := make([]CartItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || item.ProductID == 0 {
			continue
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		result = append(result, item)
	}
	return result
}
