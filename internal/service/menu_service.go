package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ali-baba-kitchen/internal/cache"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/repository"
)

const (
	menuCacheTTLDefault = 60 * time.Second
	featuredLimit       = 6
)

// MenuCategory 分类响应（附带当前语言名称）
type MenuCategory struct {
	models.Category
	DisplayName        string `json:"display_name"`
	DisplayDescription string `json:"display_description"`
}

// MenuProduct 菜品响应（附带当前语言名称）
type MenuProduct struct {
	models.Product
	DisplayName        string `json:"display_name"`
	DisplayDescription string `json:"display_description"`
}

// MenuQuery 菜单查询条件
type MenuQuery struct {
	CategoryID uint
	Search     string
	Lang       string
}

// MenuService 菜单读取服务
// 菜单数据只读，读取失败时降级为空列表。
type MenuService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cacheTTL     time.Duration
}

// NewMenuService 创建菜单服务
func NewMenuService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository, cacheTTLSeconds int) *MenuService {
	ttl := menuCacheTTLDefault
	if cacheTTLSeconds > 0 {
		ttl = time.Duration(cacheTTLSeconds) * time.Second
	}
	return &MenuService{categoryRepo: categoryRepo, productRepo: productRepo, cacheTTL: ttl}
}

// ListCategories 启用中的分类，按排序权重
func (s *MenuService) ListCategories(ctx context.Context, lang string) []MenuCategory {
	var categories []models.Category
	if !s.readCache(ctx, "menu:categories", &categories) {
		rows, err := s.categoryRepo.ListActive()
		if err != nil {
			logger.Warnw("menu_categories_load_failed", "error", err)
			return []MenuCategory{}
		}
		categories = rows
		s.writeCache(ctx, "menu:categories", categories)
	}
	result := make([]MenuCategory, 0, len(categories))
	for _, category := range categories {
		result = append(result, MenuCategory{
			Category:           category,
			DisplayName:        category.NameJSON.Localized(lang),
			DisplayDescription: category.DescriptionJSON.Localized(lang),
		})
	}
	return result
}

// ListProducts 可售菜品，可按分类过滤或按名称搜索
func (s *MenuService) ListProducts(ctx context.Context, query MenuQuery) []MenuProduct {
	search := strings.TrimSpace(query.Search)
	cacheKey := fmt.Sprintf("menu:products:%d", query.CategoryID)

	var products []models.Product
	if search != "" || !s.readCache(ctx, cacheKey, &products) {
		rows, err := s.productRepo.List(repository.ProductListFilter{
			CategoryID:    query.CategoryID,
			Search:        search,
			OnlyAvailable: true,
			WithCategory:  true,
		})
		if err != nil {
			logger.Warnw("menu_products_load_failed",
				"category_id", query.CategoryID,
				"search", search,
				"error", err,
			)
			return []MenuProduct{}
		}
		products = rows
		if search == "" {
			s.writeCache(ctx, cacheKey, products)
		}
	}
	return localizeProducts(products, query.Lang)
}

// ListFeatured 推荐且可售的菜品，失败时返回空列表
func (s *MenuService) ListFeatured(ctx context.Context, lang string) []MenuProduct {
	var products []models.Product
	if !s.readCache(ctx, "menu:featured", &products) {
		rows, err := s.productRepo.List(repository.ProductListFilter{
			OnlyAvailable: true,
			OnlyFeatured:  true,
			Limit:         featuredLimit,
		})
		if err != nil {
			logger.Warnw("menu_featured_load_failed", "error", err)
			return []MenuProduct{}
		}
		products = rows
		s.writeCache(ctx, "menu:featured", products)
	}
	return localizeProducts(products, lang)
}

// GetProduct 菜品详情
func (s *MenuService) GetProduct(id uint, lang string) (*MenuProduct, error) {
	if id == 0 {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, newExternalError("load product", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return &MenuProduct{
		Product:            *product,
		DisplayName:        product.DisplayName(lang),
		DisplayDescription: product.DescriptionJSON.Localized(lang),
	}, nil
}

func (s *MenuService) readCache(ctx context.Context, key string, dest interface{}) bool {
	hit, err := cache.GetJSON(ctx, key, dest)
	if err != nil {
		logger.Debugw("menu_cache_get_failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *MenuService) writeCache(ctx context.Context, key string, value interface{}) {
	if err := cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		logger.Debugw("menu_cache_set_failed", "key", key, "error", err)
	}
}

func localizeProducts(products []models.Product, lang string) []MenuProduct {
	result := make([]MenuProduct, 0, len(products))
	for _, product := range products {
		result = append(result, MenuProduct{
			Product:            product,
			DisplayName:        product.DisplayName(lang),
			DisplayDescription: product.DescriptionJSON.Localized(lang),
		})
	}
	return result
}
