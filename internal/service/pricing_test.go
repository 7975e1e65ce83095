package service

import (
	"testing"

	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/models"

	"github.com/shopspring/decimal"
)

var (
	testThreshold = decimal.RequireFromString("25.00")
	testFee       = decimal.RequireFromString("2.50")
)

func mustMoney(t *testing.T, raw string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(raw)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", raw, err)
	}
	return m
}

func TestComputeTotalsDeliveryBelowThreshold(t *testing.T) {
	items := []CartItem{
		{ProductID: 1, UnitPrice: mustMoney(t, "8.50"), Quantity: 2},
		{ProductID: 2, UnitPrice: mustMoney(t, "3.00"), Quantity: 1},
	}
	totals := ComputeTotals(items, constants.OrderTypeDelivery, testThreshold, testFee)
	if totals.Subtotal.String() != "20.00" {
		t.Fatalf("subtotal want 20.00 got %s", totals.Subtotal)
	}
	if totals.DeliveryFee.String() != "2.50" {
		t.Fatalf("delivery fee want 2.50 got %s", totals.DeliveryFee)
	}
	if totals.Total.String() != "22.50" {
		t.Fatalf("total want 22.50 got %s", totals.Total)
	}
}

func TestComputeTotalsFreeDeliveryAtThreshold(t *testing.T) {
	items := []CartItem{{ProductID: 1, UnitPrice: mustMoney(t, "12.50"), Quantity: 2}}
	totals := ComputeTotals(items, constants.OrderTypeDelivery, testThreshold, testFee)
	if !totals.DeliveryFee.IsZero() {
		t.Fatalf("subtotal equal to threshold should ship free, got %s", totals.DeliveryFee)
	}
	if totals.Total.String() != "25.00" {
		t.Fatalf("total want 25.00 got %s", totals.Total)
	}
}

func TestComputeTotalsPickupNeverCharged(t *testing.T) {
	items := []CartItem{{ProductID: 1, UnitPrice: mustMoney(t, "4.00"), Quantity: 1}}
	totals := ComputeTotals(items, constants.OrderTypePickup, testThreshold, testFee)
	if !totals.DeliveryFee.IsZero() {
		t.Fatalf("pickup should not be charged delivery, got %s", totals.DeliveryFee)
	}
	if totals.Total.String() != "4.00" {
		t.Fatalf("total want 4.00 got %s", totals.Total)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, constants.OrderTypeDelivery, testThreshold, testFee)
	if !totals.Subtotal.IsZero() || !totals.DeliveryFee.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("empty cart should be all zeros: %+v", totals)
	}
}

func TestComputeTotalsAvoidsFloatDrift(t *testing.T) {
	items := []CartItem{
		{ProductID: 1, UnitPrice: mustMoney(t, "0.10"), Quantity: 3},
		{ProductID: 2, UnitPrice: mustMoney(t, "0.20"), Quantity: 1},
	}
	totals := ComputeTotals(items, constants.OrderTypePickup, testThreshold, testFee)
	if totals.Subtotal.String() != "0.50" {
		t.Fatalf("subtotal want 0.50 got %s", totals.Subtotal)
	}
}
