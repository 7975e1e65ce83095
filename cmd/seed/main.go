package main

import (
	"strings"

	"github.com/ali-baba-kitchen/internal/authz"
	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/models"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	Category    string
	NameEN      string
	NameDE      string
	DescEN      string
	DescDE      string
	Price       string
	IsFeatured  bool
	SortOrder   int
	ImageURL    string
	IsAvailable bool
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 分类（以英文名去重）
	categories := []models.Category{
		{NameJSON: models.JSON{"en": "Starters", "de": "Vorspeisen"}, IsActive: true, SortOrder: 1},
		{NameJSON: models.JSON{"en": "Mains", "de": "Hauptgerichte"}, IsActive: true, SortOrder: 2},
		{NameJSON: models.JSON{"en": "Desserts", "de": "Nachspeisen"}, IsActive: true, SortOrder: 3},
		{NameJSON: models.JSON{"en": "Drinks", "de": "Getränke"}, IsActive: true, SortOrder: 4},
	}

	categoryIDs := map[string]uint{}
	var existingCategories []models.Category
	if err := models.DB.Find(&existingCategories).Error; err != nil {
		stdLog.Fatalf("Failed to load categories: %v", err)
	}
	for _, cat := range existingCategories {
		categoryIDs[cat.NameJSON.Localized("en")] = cat.ID
	}
	for i := range categories {
		name := categories[i].NameJSON.Localized("en")
		if _, ok := categoryIDs[name]; ok {
			stdLog.Printf("Category already exists: %s", name)
			continue
		}
		if err := models.DB.Create(&categories[i]).Error; err != nil {
			stdLog.Printf("Failed to create category %s: %v", name, err)
			continue
		}
		categoryIDs[name] = categories[i].ID
		stdLog.Printf("Created category: %s", name)
	}

	products := []seedProduct{
		{Category: "Starters", NameEN: "Hummus", NameDE: "Hummus", DescEN: "Chickpea puree with tahini and olive oil", DescDE: "Kichererbsenpüree mit Tahini und Olivenöl", Price: "5.50", SortOrder: 1, IsAvailable: true},
		{Category: "Starters", NameEN: "Falafel plate", NameDE: "Falafel-Teller", DescEN: "Six falafel with salad and tahini sauce", DescDE: "Sechs Falafel mit Salat und Tahinisoße", Price: "7.90", IsFeatured: true, SortOrder: 2, IsAvailable: true},
		{Category: "Starters", NameEN: "Lentil soup", NameDE: "Linsensuppe", DescEN: "Red lentils with cumin and lemon", DescDE: "Rote Linsen mit Kreuzkümmel und Zitrone", Price: "4.90", SortOrder: 3, IsAvailable: true},
		{Category: "Mains", NameEN: "Chicken shawarma", NameDE: "Hähnchen-Schawarma", DescEN: "Marinated chicken with garlic sauce", DescDE: "Mariniertes Hähnchen mit Knoblauchsoße", Price: "11.50", IsFeatured: true, SortOrder: 1, IsAvailable: true},
		{Category: "Mains", NameEN: "Lamb kofta", NameDE: "Lamm-Kofta", DescEN: "Grilled lamb skewers with rice", DescDE: "Gegrillte Lammspieße mit Reis", Price: "14.90", SortOrder: 2, IsAvailable: true},
		{Category: "Mains", NameEN: "Mixed grill", NameDE: "Grillteller", DescEN: "Kofta, shish tawook and lamb chops", DescDE: "Kofta, Schisch Tawuk und Lammkoteletts", Price: "19.90", SortOrder: 3, IsAvailable: false},
		{Category: "Desserts", NameEN: "Baklava", NameDE: "Baklava", DescEN: "Filo pastry with pistachio and syrup", DescDE: "Filoteig mit Pistazien und Sirup", Price: "4.50", IsFeatured: true, SortOrder: 1, IsAvailable: true},
		{Category: "Desserts", NameEN: "Kunafa", NameDE: "Kunafa", DescEN: "Warm cheese pastry with rose syrup", DescDE: "Warmes Käsegebäck mit Rosensirup", Price: "6.20", SortOrder: 2, IsAvailable: true},
		{Category: "Drinks", NameEN: "Mint tea", NameDE: "Minztee", DescEN: "Fresh mint, served hot", DescDE: "Frische Minze, heiß serviert", Price: "2.80", SortOrder: 1, IsAvailable: true},
		{Category: "Drinks", NameEN: "Ayran", NameDE: "Ayran", DescEN: "Salted yoghurt drink", DescDE: "Gesalzenes Joghurtgetränk", Price: "2.50", SortOrder: 2, IsAvailable: true},
	}

	for _, item := range products {
		categoryID, ok := categoryIDs[item.Category]
		if !ok {
			stdLog.Printf("Skip product %s: category %s missing", item.NameEN, item.Category)
			continue
		}
		var count int64
		if err := models.DB.Model(&models.Product{}).
			Where("category_id = ? AND sort_order = ?", categoryID, item.SortOrder).
			Count(&count).Error; err != nil {
			stdLog.Printf("Failed to check product %s: %v", item.NameEN, err)
			continue
		}
		if count > 0 {
			stdLog.Printf("Product already exists: %s", item.NameEN)
			continue
		}
		product := models.Product{
			CategoryID:      categoryID,
			NameJSON:        models.JSON{"en": item.NameEN, "de": item.NameDE},
			DescriptionJSON: models.JSON{"en": item.DescEN, "de": item.DescDE},
			Price:           models.NewMoneyFromDecimal(decimal.RequireFromString(item.Price)),
			ImageURL:        item.ImageURL,
			IsAvailable:     item.IsAvailable,
			IsFeatured:      item.IsFeatured,
			SortOrder:       item.SortOrder,
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", item.NameEN, err)
			continue
		}
		stdLog.Printf("Created product: %s", item.NameEN)
	}

	// 管理员账号与角色
	if err := models.InitDefaultAdmin(cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName); err != nil {
		stdLog.Fatalf("Failed to init admin: %v", err)
	}
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}
	var admins []models.Profile
	if err := models.DB.Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		stdLog.Fatalf("Failed to load admins: %v", err)
	}
	for _, admin := range admins {
		if err := authzService.EnsureDefaultRole(admin.ID, authz.RoleManager); err != nil {
			stdLog.Printf("Failed to assign role to %s: %v", admin.Email, err)
			continue
		}
		stdLog.Printf("Admin ready: %s", strings.ToLower(admin.Email))
	}

	stdLog.Printf("Seed completed")
}
