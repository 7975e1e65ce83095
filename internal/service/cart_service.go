package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/kvstore"
	"github.com/ali-baba-kitchen/internal/repository"
)

var cartSessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// CartOwner 购物车归属：登录顾客或游客会话
type CartOwner struct {
	UserID    uint
	SessionID string
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	ProductID uint
	Quantity  int
	Notes     string
	Lang      string
}

// CartView 购物车及按订单类型计算的金额
type CartView struct {
	CartSnapshot
	OrderType string `json:"order_type"`
	Totals    Totals `json:"totals"`
}

// CartService 购物车服务
type CartService struct {
	storage     kvstore.Store
	productRepo repository.ProductRepository
	orderCfg    config.OrderConfig

	locksMu sync.Mutex
	locks   map[string]*cartLock
}

// cartLock 按键引用计数的互斥锁，最后一个持有者释放时移除
type cartLock struct {
	mu   sync.Mutex
	refs int
}

// NewCartService 创建购物车服务
func NewCartService(storage kvstore.Store, productRepo repository.ProductRepository, orderCfg config.OrderConfig) *CartService {
	return &CartService{
		storage:     storage,
		productRepo: productRepo,
		orderCfg:    orderCfg,
	}
}

// CartKey 解析购物车存储键
func CartKey(owner CartOwner) (string, error) {
	return ownerKey(constants.KVKeyCartPrefix, owner)
}

// ownerKey 按归属拼接键：登录顾客优先，其次游客会话
func ownerKey(prefix string, owner CartOwner) (string, error) {
	if owner.UserID != 0 {
		return fmt.Sprintf("%s%s%d", prefix, constants.CartOwnerUser, owner.UserID), nil
	}
	sessionID := strings.TrimSpace(owner.SessionID)
	if !cartSessionPattern.MatchString(sessionID) {
		return "", newValidationError(constants.HeaderCartSession, "missing or malformed cart session")
	}
	return prefix + constants.CartOwnerSession + sessionID, nil
}

// Open 打开购物车，调用方持有返回的 release 直到使用完毕
func (s *CartService) Open(ctx context.Context, owner CartOwner) (*CartStore, func(), error) {
	key, err := CartKey(owner)
	if err != nil {
		return nil, nil, err
	}
	release := s.lock(key)
	store, err := OpenCartStore(ctx, s.storage, key)
	if err != nil {
		release()
		return nil, nil, err
	}
	return store, release, nil
}

// Get 获取购物车
func (s *CartService) Get(ctx context.Context, owner CartOwner, orderType string) (*CartView, error) {
	if normalized := normalizeOrderType(orderType); normalized != "" && !isValidOrderType(normalized) {
		return nil, newValidationError("order_type", "must be pickup or delivery")
	}
	store, release, err := s.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.view(store.Snapshot(), orderType), nil
}

// AddItem 加入菜品，名称与单价以菜单为准
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, input AddCartItemInput) (*CartView, error) {
	if input.ProductID == 0 {
		return nil, newValidationError("product_id", "is required")
	}
	if input.Quantity <= 0 {
		return nil, newValidationError("quantity", "must be positive")
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, newExternalError("load product", err)
	}
	if product == nil || !product.IsAvailable {
		return nil, newValidationError("product_id", "product is not available")
	}

	store, release, err := s.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot, err := store.AddItem(ctx, NewCartItem{
		ProductID: product.ID,
		Name:      product.DisplayName(input.Lang),
		UnitPrice: product.Price,
		Quantity:  input.Quantity,
		Notes:     input.Notes,
	})
	if err != nil {
		return nil, err
	}
	return s.view(snapshot, ""), nil
}

// UpdateQuantity 修改行数量
func (s *CartService) UpdateQuantity(ctx context.Context, owner CartOwner, lineID string, quantity int) (*CartView, error) {
	store, release, err := s.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot, err := store.UpdateQuantity(ctx, strings.TrimSpace(lineID), quantity)
	if err != nil {
		return nil, err
	}
	return s.view(snapshot, ""), nil
}

// RemoveItem 删除行
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, lineID string) (*CartView, error) {
	store, release, err := s.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot, err := store.RemoveItem(ctx, strings.TrimSpace(lineID))
	if err != nil {
		return nil, err
	}
	return s.view(snapshot, ""), nil
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, owner CartOwner) (*CartView, error) {
	store, release, err := s.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot, err := store.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return s.view(snapshot, ""), nil
}

func (s *CartService) view(snapshot CartSnapshot, orderType string) *CartView {
	orderType = normalizeOrderType(orderType)
	if orderType == "" {
		orderType = constants.OrderTypePickup
	}
	return &CartView{
		CartSnapshot: snapshot,
		OrderType:    orderType,
		Totals: ComputeTotals(
			snapshot.Items,
			orderType,
			s.orderCfg.FreeDeliveryThresholdDecimal(),
			s.orderCfg.BaseDeliveryFeeDecimal(),
		),
	}
}

// lock 同一购物车键的读改写串行执行
func (s *CartService) lock(key string) func() {
	s.locksMu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*cartLock)
	}
	l, ok := s.locks[key]
	if !ok {
		l = &cartLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, key)
			}
			s.locksMu.Unlock()
		})
	}
}

func normalizeOrderType(orderType string) string {
	return strings.ToLower(strings.TrimSpace(orderType))
}
