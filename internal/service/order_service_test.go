package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/metrics"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Profile{}, &models.Category{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.KVEntry{}); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return db
}

func testOrderConfig() config.OrderConfig {
	return config.OrderConfig{
		FreeDeliveryThreshold:   "25.00",
		BaseDeliveryFee:         "2.50",
		PickupEstimateMinutes:   20,
		DeliveryEstimateMinutes: 45,
		ItemFailurePolicy:       constants.ItemFailurePolicyKeep,
	}
}

// failingItemsRepo 明细写入总是失败
type failingItemsRepo struct {
	repository.OrderRepository
	deleteErr error
}

func (r *failingItemsRepo) CreateItems(context.Context, *models.Order, []models.OrderItem) error {
	return errors.New("order_items insert rejected")
}

func (r *failingItemsRepo) Delete(ctx context.Context, order *models.Order) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.OrderRepository.Delete(ctx, order)
}

// takenNumbersRepo 订单号永远冲突
type takenNumbersRepo struct {
	repository.OrderRepository
}

func (r *takenNumbersRepo) ExistsOrderNumber(string) (bool, error) {
	return true, nil
}

func openFilledCart(t *testing.T, items ...NewCartItem) (*CartStore, *memoryKVStore) {
	t.Helper()
	kv := newMemoryKVStore()
	store, err := OpenCartStore(context.Background(), kv, "cart:session:checkout01")
	if err != nil {
		t.Fatalf("open cart failed: %v", err)
	}
	for _, item := range items {
		if _, err := store.AddItem(context.Background(), item); err != nil {
			t.Fatalf("add cart item failed: %v", err)
		}
	}
	return store, kv
}

func validDeliveryInput(cart *CartStore) SubmitOrderInput {
	return SubmitOrderInput{
		Cart: cart,
		Form: CheckoutForm{
			Name:       "Layla Haddad",
			Email:      "Layla@Example.com",
			Phone:      "+49 30 1234",
			Address:    "Sonnenallee 12",
			City:       "Berlin",
			PostalCode: "12045",
			Notes:      "ring twice",
		},
		OrderType:     constants.OrderTypeDelivery,
		PaymentMethod: constants.PaymentMethodCash,
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}

func TestSubmitOrderEmptyCartWritesNothing(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewOrderService(repository.NewOrderRepository(db, nil), nil, nil, testOrderConfig())
	cart, _ := openFilledCart(t)

	input := validDeliveryInput(cart)
	input.Form.Name = ""
	_, err := svc.SubmitOrder(context.Background(), input)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart should win over form errors, got %v", err)
	}
	if countRows(t, db, &models.Order{}) != 0 {
		t.Fatalf("empty cart must not write any order")
	}
}

func TestSubmitOrderValidationOrder(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewOrderService(repository.NewOrderRepository(db, nil), nil, nil, testOrderConfig())
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Falafel", UnitPrice: mustMoney(t, "5.00"), Quantity: 1})

	cases := []struct {
		name   string
		mutate func(*SubmitOrderInput)
		field  string
	}{
		{"missing name before address", func(in *SubmitOrderInput) { in.Form.Name = " "; in.Form.Address = "" }, "name"},
		{"invalid email", func(in *SubmitOrderInput) { in.Form.Email = "not-an-email" }, "email"},
		{"display name email", func(in *SubmitOrderInput) { in.Form.Email = "Layla <layla@example.com>" }, "email"},
		{"unknown order type", func(in *SubmitOrderInput) { in.OrderType = "drone" }, "order_type"},
		{"unknown payment", func(in *SubmitOrderInput) { in.PaymentMethod = "bitcoin" }, "payment_method"},
		{"delivery without city", func(in *SubmitOrderInput) { in.Form.City = "" }, "city"},
		{"delivery without postal code", func(in *SubmitOrderInput) { in.Form.PostalCode = "" }, "postal_code"},
	}
	for _, tc := range cases {
		input := validDeliveryInput(cart)
		tc.mutate(&input)
		_, err := svc.SubmitOrder(context.Background(), input)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if validationErr.Field != tc.field {
			t.Fatalf("%s: expected field %s, got %s", tc.name, tc.field, validationErr.Field)
		}
	}
	if countRows(t, db, &models.Order{}) != 0 {
		t.Fatalf("validation failures must not write orders")
	}
}

func TestSubmitOrderDeliverySuccess(t *testing.T) {
	db := setupServiceTestDB(t)
	m := metrics.New()
	svc := NewOrderService(repository.NewOrderRepository(db, nil), nil, m, testOrderConfig())
	cart, kv := openFilledCart(t,
		NewCartItem{ProductID: 1, Name: "Chicken shawarma", UnitPrice: mustMoney(t, "8.50"), Quantity: 2},
		NewCartItem{ProductID: 2, Name: "Ayran", UnitPrice: mustMoney(t, "3.00"), Quantity: 1, Notes: "cold"},
	)

	order, err := svc.SubmitOrder(context.Background(), validDeliveryInput(cart))
	if err != nil {
		t.Fatalf("submit order failed: %v", err)
	}
	if !regexp.MustCompile(`^ORD-\d{9}$`).MatchString(order.OrderNumber) {
		t.Fatalf("unexpected order number format: %s", order.OrderNumber)
	}
	if order.Subtotal.String() != "20.00" || order.DeliveryFee.String() != "2.50" || order.Total.String() != "22.50" {
		t.Fatalf("unexpected totals: %s %s %s", order.Subtotal, order.DeliveryFee, order.Total)
	}
	if order.Status != constants.OrderStatusPending || order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("new order should be pending: %s/%s", order.Status, order.PaymentStatus)
	}
	if order.EstimatedMinutes != 45 {
		t.Fatalf("delivery estimate want 45 got %d", order.EstimatedMinutes)
	}
	if order.CustomerEmail != "layla@example.com" {
		t.Fatalf("email should be normalized, got %s", order.CustomerEmail)
	}

	stored, err := repository.NewOrderRepository(db, nil).GetByID(order.ID)
	if err != nil || stored == nil {
		t.Fatalf("load stored order failed: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("expected 2 stored items, got %d", len(stored.Items))
	}
	for _, item := range stored.Items {
		if item.ProductID == 1 && item.TotalPrice.String() != "17.00" {
			t.Fatalf("line total want 17.00 got %s", item.TotalPrice)
		}
	}
	if got := cart.Snapshot(); len(got.Items) != 0 {
		t.Fatalf("cart should be cleared after success")
	}
	if _, ok := kv.values["cart:session:checkout01"]; ok {
		t.Fatalf("cleared cart should be removed from storage")
	}
	if got := testutil.ToFloat64(m.OrdersSubmitted.WithLabelValues(constants.OrderTypeDelivery)); got != 1 {
		t.Fatalf("submitted counter want 1 got %v", got)
	}
}

func TestSubmitOrderPickupIgnoresAddress(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewOrderService(repository.NewOrderRepository(db, nil), nil, nil, testOrderConfig())
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Baklava", UnitPrice: mustMoney(t, "4.00"), Quantity: 1})

	input := validDeliveryInput(cart)
	input.OrderType = "PICKUP"
	input.Form.Address = ""
	input.CustomerID = 5
	order, err := svc.SubmitOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("pickup order failed: %v", err)
	}
	if !order.DeliveryFee.IsZero() || order.EstimatedMinutes != 20 || order.DeliveryCity != "" {
		t.Fatalf("unexpected pickup order: %+v", order)
	}
	if order.UserID == nil || *order.UserID != 5 {
		t.Fatalf("customer id should be stored")
	}
}

func TestSubmitOrderItemFailureKeepsPartialOrder(t *testing.T) {
	db := setupServiceTestDB(t)
	m := metrics.New()
	repo := &failingItemsRepo{OrderRepository: repository.NewOrderRepository(db, nil)}
	svc := NewOrderService(repo, nil, m, testOrderConfig())
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Falafel", UnitPrice: mustMoney(t, "5.00"), Quantity: 1})

	_, err := svc.SubmitOrder(context.Background(), validDeliveryInput(cart))
	if !errors.Is(err, ErrPartialOrder) {
		t.Fatalf("expected partial order error, got %v", err)
	}
	var partial *PartialOrderError
	if !errors.As(err, &partial) || partial.OrderNumber == "" || partial.OrderID == 0 {
		t.Fatalf("partial error should carry the order identity: %+v", partial)
	}
	if countRows(t, db, &models.Order{}) != 1 || countRows(t, db, &models.OrderItem{}) != 0 {
		t.Fatalf("keep policy should leave the order row without items")
	}
	if len(cart.Snapshot().Items) != 1 {
		t.Fatalf("cart must be kept when items were not saved")
	}
	if got := testutil.ToFloat64(m.PartialOrders); got != 1 {
		t.Fatalf("partial counter want 1 got %v", got)
	}
}

func TestSubmitOrderItemFailureCompensates(t *testing.T) {
	db := setupServiceTestDB(t)
	cfg := testOrderConfig()
	cfg.ItemFailurePolicy = constants.ItemFailurePolicyCompensate
	repo := &failingItemsRepo{OrderRepository: repository.NewOrderRepository(db, nil)}
	svc := NewOrderService(repo, nil, nil, cfg)
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Falafel", UnitPrice: mustMoney(t, "5.00"), Quantity: 1})

	_, err := svc.SubmitOrder(context.Background(), validDeliveryInput(cart))
	if !errors.Is(err, ErrExternalService) || errors.Is(err, ErrPartialOrder) {
		t.Fatalf("compensated failure should be external only, got %v", err)
	}
	if countRows(t, db, &models.Order{}) != 0 {
		t.Fatalf("compensate policy should delete the order row")
	}
}

func TestSubmitOrderCompensationFailureIsPartial(t *testing.T) {
	db := setupServiceTestDB(t)
	cfg := testOrderConfig()
	cfg.ItemFailurePolicy = constants.ItemFailurePolicyCompensate
	repo := &failingItemsRepo{OrderRepository: repository.NewOrderRepository(db, nil), deleteErr: errors.New("delete timeout")}
	svc := NewOrderService(repo, nil, nil, cfg)
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Falafel", UnitPrice: mustMoney(t, "5.00"), Quantity: 1})

	_, err := svc.SubmitOrder(context.Background(), validDeliveryInput(cart))
	if !errors.Is(err, ErrPartialOrder) {
		t.Fatalf("failed compensation should report a partial order, got %v", err)
	}
}

func TestSubmitOrderNumberExhaustion(t *testing.T) {
	db := setupServiceTestDB(t)
	repo := &takenNumbersRepo{OrderRepository: repository.NewOrderRepository(db, nil)}
	svc := NewOrderService(repo, nil, nil, testOrderConfig())
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Falafel", UnitPrice: mustMoney(t, "5.00"), Quantity: 1})

	_, err := svc.SubmitOrder(context.Background(), validDeliveryInput(cart))
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("exhausted order numbers should be external, got %v", err)
	}
	if countRows(t, db, &models.Order{}) != 0 {
		t.Fatalf("no order should be written")
	}
}

func TestPreviewTotals(t *testing.T) {
	svc := NewOrderService(nil, nil, nil, testOrderConfig())
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Falafel", UnitPrice: mustMoney(t, "5.00"), Quantity: 2})
	totals, err := svc.PreviewTotals(cart.Snapshot(), "delivery")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if totals.Total.String() != "12.50" {
		t.Fatalf("preview total want 12.50 got %s", totals.Total)
	}
	if _, err := svc.PreviewTotals(cart.Snapshot(), "teleport"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown order type should fail preview, got %v", err)
	}
}

func TestLookupGuestOrderRequiresMatchingEmail(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewOrderService(repository.NewOrderRepository(db, nil), nil, nil, testOrderConfig())
	cart, _ := openFilledCart(t, NewCartItem{ProductID: 1, Name: "Falafel", UnitPrice: mustMoney(t, "5.00"), Quantity: 1})
	order, err := svc.SubmitOrder(context.Background(), validDeliveryInput(cart))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	found, err := svc.LookupGuestOrder(strings.ToLower(order.OrderNumber), "LAYLA@example.com")
	if err != nil || found.ID != order.ID {
		t.Fatalf("lookup with matching email failed: %v", err)
	}
	if _, err := svc.LookupGuestOrder(order.OrderNumber, "other@example.com"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("mismatched email should look like not found, got %v", err)
	}
	if _, err := svc.GetCustomerOrder(99, order.OrderNumber); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("guest order must not be visible to other customers, got %v", err)
	}
}
