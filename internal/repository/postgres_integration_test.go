//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderItem{},
		&models.Order{},
		&models.Product{},
		&models.Category{},
		&models.Profile{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresLocalizedProductSearch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	category := &models.Category{NameJSON: models.JSON{"en": "Mains", "de": "Hauptgerichte"}, IsActive: true}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}

	productRepo := NewProductRepository(db)
	product := &models.Product{
		CategoryID:      category.ID,
		NameJSON:        models.JSON{"en": "Lamb shawarma", "de": "Lamm-Schawarma"},
		DescriptionJSON: models.JSON{"en": "slow roasted", "de": "langsam gegart"},
		Price:           money("13.90"),
		IsAvailable:     true,
	}
	if err := productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	for _, term := range []string{"lamm", "roasted"} {
		rows, err := productRepo.List(ProductListFilter{Search: term, OnlyAvailable: true})
		if err != nil {
			t.Fatalf("product search %q failed: %v", term, err)
		}
		if len(rows) != 1 {
			t.Fatalf("product search %q want 1 got %d", term, len(rows))
		}
	}
}

func TestPostgresOrderStatusCompareAndSet(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db, nil)
	now := time.Now().UTC().Truncate(time.Second)

	order := createTestOrder(t, db, "ORD-PG0001", constants.OrderStatusPending, "12.50", now)
	ok, err := repo.UpdateStatusIf(context.Background(), order, constants.OrderStatusConfirmed, map[string]interface{}{
		"delivery_time": "18:30",
	})
	if err != nil || !ok {
		t.Fatalf("accept should apply on postgres: ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateStatusIf(context.Background(), order, constants.OrderStatusCancelled, nil)
	if err != nil {
		t.Fatalf("stale update failed: %v", err)
	}
	if ok {
		t.Fatalf("stale snapshot must not apply on postgres")
	}

	overview, err := NewDashboardRepository(db).GetOverview(now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.OrdersTotal != 1 || overview.Revenue != 12.5 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
}
