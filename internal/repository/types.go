package repository

import "time"

// ProductListFilter 查询菜品列表的过滤条件
type ProductListFilter struct {
	CategoryID    uint
	Search        string
	OnlyAvailable bool
	OnlyFeatured  bool
	WithCategory  bool
	Limit         int
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNumber string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CustomerListFilter 查询顾客列表的过滤条件
type CustomerListFilter struct {
	Page     int
	PageSize int
	Keyword  string
}
