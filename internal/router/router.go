package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ali-baba-kitchen/internal/authz"
	"github.com/ali-baba-kitchen/internal/cache"
	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
	adminhandlers "github.com/ali-baba-kitchen/internal/http/handlers/admin"
	publichandlers "github.com/ali-baba-kitchen/internal/http/handlers/public"
	"github.com/ali-baba-kitchen/internal/http/response"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	signInRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:sign_in", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many sign-in attempts, retry in %d seconds",
	}
	signUpRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:sign_up", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	optionalAuth := ProfileAuthMiddleware(c.AuthService, false)
	requiredAuth := ProfileAuthMiddleware(c.AuthService, true)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 菜单
		menu := apiV1.Group("/menu")
		menu.Use(optionalAuth)
		{
			menu.GET("/categories", publicHandler.GetMenuCategories)
			menu.GET("/products", publicHandler.GetMenuProducts)
			menu.GET("/products/:id", publicHandler.GetMenuProduct)
			menu.GET("/featured", publicHandler.GetFeaturedProducts)
		}

		// 认证
		auth := apiV1.Group("/auth")
		{
			auth.POST("/sign-up", RateLimitMiddleware(redisClient, signUpRule, KeyByIP), publicHandler.SignUp)
			auth.POST("/sign-in", RateLimitMiddleware(redisClient, signInRule, KeyByIPAndJSONField("email")), publicHandler.SignIn)
			auth.POST("/sign-out", requiredAuth, publicHandler.SignOut)
			auth.GET("/me", requiredAuth, publicHandler.GetCurrentUser)
		}

		// 购物车、下单与偏好（游客凭 X-Cart-Session，登录顾客凭令牌）
		shop := apiV1.Group("")
		shop.Use(optionalAuth)
		{
			shop.GET("/cart", publicHandler.GetCart)
			shop.POST("/cart/items", publicHandler.AddCartItem)
			shop.PATCH("/cart/items/:line_id", publicHandler.UpdateCartItem)
			shop.DELETE("/cart/items/:line_id", publicHandler.RemoveCartItem)
			shop.DELETE("/cart", publicHandler.ClearCart)
			shop.POST("/orders/preview", publicHandler.PreviewOrder)
			shop.POST("/orders", publicHandler.SubmitOrder)
			shop.GET("/orders/:order_number", publicHandler.LookupGuestOrder)
			shop.GET("/preferences/language", publicHandler.GetLanguage)
			shop.PUT("/preferences/language", publicHandler.SetLanguage)
		}

		// 顾客订单（需鉴权）
		me := apiV1.Group("/me")
		me.Use(requiredAuth)
		{
			me.GET("/orders", publicHandler.ListMyOrders)
			me.GET("/orders/stream", publicHandler.StreamMyOrders)
			me.GET("/orders/:order_number", publicHandler.GetMyOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(requiredAuth, AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/dashboard", adminHandler.GetDashboardOverview)
			admin.GET("/customers", adminHandler.GetCustomers)

			admin.GET("/orders", adminHandler.GetAdminOrders)
			admin.GET("/orders/stream", adminHandler.StreamAdminOrders)
			admin.GET("/orders/:id", adminHandler.GetAdminOrder)
			admin.POST("/orders/:id/accept", adminHandler.AcceptOrder)
			admin.POST("/orders/:id/reject", adminHandler.RejectOrder)
			admin.POST("/orders/:id/advance", adminHandler.AdvanceOrder)

			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 指标
	if c.Metrics != nil {
		r.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
