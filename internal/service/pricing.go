package service

import (
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/models"

	"github.com/shopspring/decimal"
)

// Totals 订单金额汇总
type Totals struct {
	Subtotal    models.Money `json:"subtotal"`
	DeliveryFee models.Money `json:"delivery_fee"`
	Total       models.Money `json:"total"`
}

// ComputeTotals 计算小计、配送费与合计
// 小计达到免配送门槛（含等于）时外送免配送费，自取永远免配送费。
func ComputeTotals(items []CartItem, orderType string, freeDeliveryThreshold, baseDeliveryFee decimal.Decimal) Totals {
	if len(items) == 0 {
		return Totals{
			Subtotal:    models.ZeroMoney(),
			DeliveryFee: models.ZeroMoney(),
			Total:       models.ZeroMoney(),
		}
	}

	subtotal := decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	fee := decimal.Zero
	if orderType == constants.OrderTypeDelivery && subtotal.LessThan(freeDeliveryThreshold) {
		fee = baseDeliveryFee
	}

	subtotal = subtotal.Round(2)
	fee = fee.Round(2)
	return Totals{
		Subtotal:    models.NewMoneyFromDecimal(subtotal),
		DeliveryFee: models.NewMoneyFromDecimal(fee),
		Total:       models.NewMoneyFromDecimal(subtotal.Add(fee)),
	}
}

func lineTotal(unitPrice models.Money, quantity int) models.Money {
	return models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(quantity))).Round(2))
}
