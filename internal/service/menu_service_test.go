package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/repository"
)

// brokenProductRepo 模拟数据库不可用
type brokenProductRepo struct {
	repository.ProductRepository
}

func (brokenProductRepo) List(repository.ProductListFilter) ([]models.Product, error) {
	return nil, errors.New("relation products does not exist")
}

func TestMenuServiceListsAvailableProductsLocalized(t *testing.T) {
	db := setupServiceTestDB(t)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)

	mains := &models.Category{NameJSON: models.JSON{"en": "Mains", "de": "Hauptgerichte"}, IsActive: true, SortOrder: 1}
	drinks := &models.Category{NameJSON: models.JSON{"en": "Drinks", "de": "Getränke"}, IsActive: true, SortOrder: 2}
	for _, c := range []*models.Category{mains, drinks} {
		if err := categoryRepo.Create(c); err != nil {
			t.Fatalf("create category failed: %v", err)
		}
	}
	products := []*models.Product{
		{CategoryID: mains.ID, NameJSON: models.JSON{"en": "Lamb kebab", "de": "Lammspieß"}, Price: mustMoney(t, "14.50"), IsAvailable: true, IsFeatured: true, SortOrder: 1},
		{CategoryID: mains.ID, NameJSON: models.JSON{"en": "Sold out stew"}, Price: mustMoney(t, "9.00"), IsAvailable: false, IsFeatured: true},
		{CategoryID: drinks.ID, NameJSON: models.JSON{"en": "Mint tea", "de": "Minztee"}, Price: mustMoney(t, "2.80"), IsAvailable: true},
	}
	for _, p := range products {
		if err := productRepo.Create(p); err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}
	// 带 default 标签的布尔零值在 Create 时会被默认值替代
	if err := db.Model(&models.Product{}).Where("id = ?", products[1].ID).Update("is_available", false).Error; err != nil {
		t.Fatalf("mark unavailable failed: %v", err)
	}

	svc := NewMenuService(categoryRepo, productRepo, 0)
	categories := svc.ListCategories(context.Background(), "de")
	if len(categories) != 2 || categories[0].DisplayName != "Hauptgerichte" {
		t.Fatalf("unexpected categories: %+v", categories)
	}

	all := svc.ListProducts(context.Background(), MenuQuery{Lang: "de"})
	if len(all) != 2 {
		t.Fatalf("only available products should be listed, got %d", len(all))
	}
	onlyMains := svc.ListProducts(context.Background(), MenuQuery{CategoryID: mains.ID, Lang: "en"})
	if len(onlyMains) != 1 || onlyMains[0].DisplayName != "Lamb kebab" {
		t.Fatalf("unexpected category filter result: %+v", onlyMains)
	}
	searched := svc.ListProducts(context.Background(), MenuQuery{Search: "minz", Lang: "de"})
	if len(searched) != 1 || searched[0].DisplayName != "Minztee" {
		t.Fatalf("unexpected search result: %+v", searched)
	}

	featured := svc.ListFeatured(context.Background(), "en")
	if len(featured) != 1 || featured[0].ID != products[0].ID {
		t.Fatalf("featured should be featured and available: %+v", featured)
	}

	detail, err := svc.GetProduct(products[2].ID, "fr")
	if err != nil || detail.DisplayName != "Mint tea" {
		t.Fatalf("unsupported language should fall back to en: %+v err=%v", detail, err)
	}
	if _, err := svc.GetProduct(9999, "en"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product should be not found, got %v", err)
	}
}

func TestMenuServiceFeaturedDegradesToEmpty(t *testing.T) {
	svc := NewMenuService(nil, brokenProductRepo{}, 0)
	featured := svc.ListFeatured(context.Background(), "en")
	if featured == nil || len(featured) != 0 {
		t.Fatalf("featured should degrade to an empty list, got %+v", featured)
	}
	if got := svc.ListProducts(context.Background(), MenuQuery{}); len(got) != 0 {
		t.Fatalf("menu should degrade to an empty list, got %+v", got)
	}
}
