package service

import (
	"github.com/ali-baba-kitchen/internal/repository"
)

// CustomerSummary 顾客概要
type CustomerSummary struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	OrderCount int64  `json:"order_count"`
	TotalSpent string `json:"total_spent"`
}

// CustomerService 管理端顾客查询
type CustomerService struct {
	profileRepo repository.ProfileRepository
}

// NewCustomerService 创建顾客查询服务
func NewCustomerService(profileRepo repository.ProfileRepository) *CustomerService {
	return &CustomerService{profileRepo: profileRepo}
}

// ListCustomers 顾客列表，附带订单数与消费总额
func (s *CustomerService) ListCustomers(filter repository.CustomerListFilter) ([]CustomerSummary, int64, error) {
	rows, total, err := s.profileRepo.ListCustomers(filter)
	if err != nil {
		return nil, 0, newExternalError("list customers", err)
	}
	result := make([]CustomerSummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, CustomerSummary{
			ID:         row.ID,
			Email:      row.Email,
			FullName:   row.FullName,
			Phone:      row.Phone,
			OrderCount: row.OrderCount,
			TotalSpent: formatMoneyValue(row.TotalSpent),
		})
	}
	return result, total, nil
}
