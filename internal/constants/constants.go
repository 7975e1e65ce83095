package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 订单类型常量
const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
)

// 支付方式常量
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

// 支付状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// 订单号前缀
const OrderNumberPrefix = "ORD-"

// 订单明细写入失败的处理策略
const (
	ItemFailurePolicyKeep       = "keep"
	ItemFailurePolicyCompensate = "compensate"
)

// 订单状态流转动作
const (
	OrderActionAccept  = "accept"
	OrderActionReject  = "reject"
	OrderActionAdvance = "advance"
)

// 实时变更通知常量
const (
	RealtimeDriverLocal    = "local"
	RealtimeDriverRedis    = "redis"
	RealtimeDriverRabbitMQ = "rabbitmq"

	ChangeTableOrders     = "orders"
	ChangeTableOrderItems = "order_items"

	ChangeTypeInsert = "INSERT"
	ChangeTypeUpdate = "UPDATE"
	ChangeTypeDelete = "DELETE"
)

// 键值存储驱动常量
const (
	KVDriverDatabase = "database"
	KVDriverRedis    = "redis"
)

// 键值存储键前缀
const (
	KVKeyCartPrefix     = "cart:"
	KVKeyLanguagePrefix = "language:"
)

// 购物车归属前缀
const (
	CartOwnerUser    = "user:"
	CartOwnerSession = "session:"
)

// 购物车会话请求头
const HeaderCartSession = "X-Cart-Session"

// 语言常量
const (
	LanguageEN      = "en"
	LanguageDE      = "de"
	LanguageDefault = LanguageEN
)

// SupportedLanguages 支持的语言
var SupportedLanguages = []string{LanguageEN, LanguageDE}

// 角色常量
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// 队列常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskOrderStatusNotify    = "order:status_notify"
	TaskOrderPartialAlert    = "order:partial_alert"
	OrderNotifyMaxRetry      = 3
	OrderPartialAlertMaxTry  = 5
	DashboardRecentOrderSize = 5
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ab"
)
