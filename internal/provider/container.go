package provider

import (
	"github.com/ali-baba-kitchen/internal/authz"
	"github.com/ali-baba-kitchen/internal/cache"
	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/logger"
	"github.com/ali-baba-kitchen/internal/metrics"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/queue"
	"github.com/ali-baba-kitchen/internal/realtime"
	"github.com/ali-baba-kitchen/internal/repository"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/ali-baba-kitchen/internal/kvstore"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Metrics
	Broker      realtime.Broker
	KVStore     kvstore.Store

	// Repositories
	ProfileRepo   repository.ProfileRepository
	CategoryRepo  repository.CategoryRepository
	ProductRepo   repository.ProductRepository
	OrderRepo     repository.OrderRepository
	DashboardRepo repository.DashboardRepository
	KVRepo        repository.KVRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	EmailService      *service.EmailService
	MenuService       *service.MenuService
	CartService       *service.CartService
	OrderService      *service.OrderService
	OrderSyncService  *service.OrderSyncService
	PreferenceService *service.PreferenceService
	DashboardService  *service.DashboardService
	CustomerService   *service.CustomerService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	broker, err := realtime.NewBroker(cfg.Realtime, cache.Client())
	if err != nil {
		// 实时通道不可用时退回进程内广播，订单写入不受影响
		logger.Errorw("provider_init_realtime_broker_failed", "driver", cfg.Realtime.Driver, "error", err)
		broker = realtime.NewLocalBroker(cfg.Realtime.BufferSize)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     metrics.New(),
		Broker:      broker,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProfileRepo = repository.NewProfileRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db, c.Broker)
	c.DashboardRepo = repository.NewDashboardRepository(db)
	c.KVRepo = repository.NewKVRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	store, err := kvstore.New(c.Config.KV, c.KVRepo, cache.Client())
	if err != nil {
		logger.Errorw("provider_init_kv_store_failed", "driver", c.Config.KV.Driver, "error", err)
		panic(err)
	}
	c.KVStore = store

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.ProfileRepo)
	c.MenuService = service.NewMenuService(c.CategoryRepo, c.ProductRepo, c.Config.Menu.CacheTTLSeconds)
	c.CartService = service.NewCartService(c.KVStore, c.ProductRepo, c.Config.Order)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.QueueClient, c.Metrics, c.Config.Order)
	c.OrderSyncService = service.NewOrderSyncService(c.Broker, c.OrderRepo, c.Metrics)
	c.PreferenceService = service.NewPreferenceService(c.KVStore)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
	c.CustomerService = service.NewCustomerService(c.ProfileRepo)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Broker != nil {
		if err := c.Broker.Close(); err != nil {
			logger.Warnw("provider_close_realtime_broker_failed", "error", err)
		}
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
}
