package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ali-baba-kitchen/internal/config"
	"github.com/ali-baba-kitchen/internal/constants"
	"github.com/ali-baba-kitchen/internal/kvstore"
	"github.com/ali-baba-kitchen/internal/metrics"
	"github.com/ali-baba-kitchen/internal/models"
	"github.com/ali-baba-kitchen/internal/provider"
	"github.com/ali-baba-kitchen/internal/repository"
	"github.com/ali-baba-kitchen/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testCartSession = "guest-session-0001"

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupPublicHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.KVEntry{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	orderCfg := config.OrderConfig{
		FreeDeliveryThreshold:   "25.00",
		BaseDeliveryFee:         "2.50",
		PickupEstimateMinutes:   20,
		DeliveryEstimateMinutes: 45,
		ItemFailurePolicy:       constants.ItemFailurePolicyKeep,
	}
	store := kvstore.NewDBStore(repository.NewKVRepository(db))
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db, nil)

	h := New(&provider.Container{
		Config:            &config.Config{Order: orderCfg},
		CartService:       service.NewCartService(store, productRepo, orderCfg),
		OrderService:      service.NewOrderService(orderRepo, nil, metrics.New(), orderCfg),
		PreferenceService: service.NewPreferenceService(store),
	})

	r := gin.New()
	r.GET("/cart", h.GetCart)
	r.POST("/cart/items", h.AddCartItem)
	r.PATCH("/cart/items/:line_id", h.UpdateCartItem)
	r.POST("/orders/preview", h.PreviewOrder)
	r.POST("/orders", h.SubmitOrder)
	r.GET("/orders/:order_number", h.LookupGuestOrder)
	r.PUT("/preferences/language", h.SetLanguage)
	return r, db
}

func seedProduct(t *testing.T, db *gorm.DB, nameEN, nameDE, price string, available bool) models.Product {
	t.Helper()
	category := models.Category{NameJSON: models.JSON{"en": "Mains"}, IsActive: true}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := models.Product{
		CategoryID:  category.ID,
		NameJSON:    models.JSON{"en": nameEN, "de": nameDE},
		Price:       models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		IsAvailable: available,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if !available {
		if err := db.Model(&product).Update("is_available", false).Error; err != nil {
			t.Fatalf("mark product unavailable failed: %v", err)
		}
	}
	return product
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderCartSession, testCartSession)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s unexpected http status: %d", method, path, w.Code)
	}
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestGuestCheckoutFlow(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	product := seedProduct(t, db, "Falafel plate", "Falafel-Teller", "7.90", true)

	resp := doJSON(t, r, http.MethodPut, "/preferences/language", gin.H{"language": "de"})
	if resp.StatusCode != 0 {
		t.Fatalf("set language failed: %+v", resp)
	}

	resp = doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID, "quantity": 2})
	if resp.StatusCode != 0 {
		t.Fatalf("add item failed: %+v", resp)
	}
	var cart service.CartView
	if err := json.Unmarshal(resp.Data, &cart); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.TotalItemCount != 2 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if cart.Items[0].Name != "Falafel-Teller" {
		t.Fatalf("cart line should use saved language, got %q", cart.Items[0].Name)
	}
	if cart.Subtotal.String() != "15.80" {
		t.Fatalf("subtotal want 15.80 got %s", cart.Subtotal.String())
	}

	resp = doJSON(t, r, http.MethodPost, "/orders/preview", gin.H{"order_type": "delivery"})
	if resp.StatusCode != 0 {
		t.Fatalf("preview failed: %+v", resp)
	}
	var preview struct {
		Totals service.Totals `json:"totals"`
	}
	if err := json.Unmarshal(resp.Data, &preview); err != nil {
		t.Fatalf("decode preview failed: %v", err)
	}
	if preview.Totals.DeliveryFee.String() != "2.50" || preview.Totals.Total.String() != "18.30" {
		t.Fatalf("unexpected preview totals: %+v", preview.Totals)
	}

	resp = doJSON(t, r, http.MethodPost, "/orders", gin.H{
		"name":           "Omar Saleh",
		"email":          "Omar@Example.com",
		"phone":          "+49 30 5555",
		"address":        "Karl-Marx-Str. 1",
		"city":           "Berlin",
		"postal_code":    "12043",
		"order_type":     "delivery",
		"payment_method": "cash",
	})
	if resp.StatusCode != 0 {
		t.Fatalf("submit failed: %+v", resp)
	}
	var order models.Order
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("decode order failed: %v", err)
	}
	if !strings.HasPrefix(order.OrderNumber, constants.OrderNumberPrefix) {
		t.Fatalf("unexpected order number: %s", order.OrderNumber)
	}
	if order.Status != constants.OrderStatusPending || order.Total.String() != "18.30" {
		t.Fatalf("unexpected order: status=%s total=%s", order.Status, order.Total.String())
	}
	if order.CustomerEmail != "omar@example.com" {
		t.Fatalf("email should be normalized, got %s", order.CustomerEmail)
	}

	resp = doJSON(t, r, http.MethodGet, "/cart", nil)
	if err := json.Unmarshal(resp.Data, &cart); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be cleared after submit: %+v", cart.Items)
	}

	resp = doJSON(t, r, http.MethodGet, "/orders/"+order.OrderNumber+"?email=omar@example.com", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("guest lookup failed: %+v", resp)
	}
	resp = doJSON(t, r, http.MethodGet, "/orders/"+order.OrderNumber+"?email=someone@example.com", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("lookup with wrong email should be 404, got %+v", resp)
	}
}

func TestSubmitOrderEmptyCartRejected(t *testing.T) {
	r, db := setupPublicHandlerTest(t)

	resp := doJSON(t, r, http.MethodPost, "/orders", gin.H{
		"name":           "Omar Saleh",
		"email":          "omar@example.com",
		"order_type":     "pickup",
		"payment_method": "card",
	})
	if resp.StatusCode != 400 {
		t.Fatalf("empty cart should be rejected, got %+v", resp)
	}
	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no order should be written, got %d", count)
	}
}

func TestSubmitOrderValidationReportsField(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	product := seedProduct(t, db, "Hummus", "Hummus", "5.50", true)
	doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID})

	resp := doJSON(t, r, http.MethodPost, "/orders", gin.H{
		"name":           "Omar Saleh",
		"email":          "omar@example.com",
		"order_type":     "delivery",
		"payment_method": "cash",
	})
	if resp.StatusCode != 400 {
		t.Fatalf("missing address should be rejected, got %+v", resp)
	}
	var data struct {
		Field string `json:"field"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode error data failed: %v", err)
	}
	if data.Field != "address" {
		t.Fatalf("want field address got %q", data.Field)
	}
}

func TestAddUnavailableProductRejected(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	product := seedProduct(t, db, "Mixed grill", "Grillteller", "19.90", false)

	resp := doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID, "quantity": 1})
	if resp.StatusCode != 400 {
		t.Fatalf("unavailable product should be rejected, got %+v", resp)
	}
}

func TestCartRequiresSessionForGuests(t *testing.T) {
	r, _ := setupPublicHandlerTest(t)
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("missing cart session should be 400, got %+v", resp)
	}
}

func TestAddCartItemRejectsNonPositiveQuantity(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	product := seedProduct(t, db, "Shawarma wrap", "Schawarma-Wrap", "8.50", true)

	for _, quantity := range []int{0, -1} {
		resp := doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID, "quantity": quantity})
		if resp.StatusCode != 400 {
			t.Fatalf("quantity %d should be rejected, got %+v", quantity, resp)
		}
		var data struct {
			Field string `json:"field"`
		}
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			t.Fatalf("decode error data failed: %v", err)
		}
		if data.Field != "quantity" {
			t.Fatalf("quantity %d want field quantity got %q", quantity, data.Field)
		}
	}

	resp := doJSON(t, r, http.MethodGet, "/cart", nil)
	var cart service.CartView
	if err := json.Unmarshal(resp.Data, &cart); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("rejected adds must not touch the cart: %+v", cart.Items)
	}

	resp = doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID})
	if err := json.Unmarshal(resp.Data, &cart); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	if resp.StatusCode != 0 || cart.TotalItemCount != 1 {
		t.Fatalf("omitted quantity should default to 1, got %+v", cart)
	}
}

func TestPreviewOrderRejectsUnknownOrderType(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	product := seedProduct(t, db, "Lentil soup", "Linsensuppe", "4.90", true)
	doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID})

	resp := doJSON(t, r, http.MethodPost, "/orders/preview", gin.H{"order_type": "drone"})
	if resp.StatusCode != 400 {
		t.Fatalf("unknown order type should be rejected, got %+v", resp)
	}
	resp = doJSON(t, r, http.MethodGet, "/cart?order_type=drone", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("cart with unknown order type should be rejected, got %+v", resp)
	}
	var data struct {
		Field string `json:"field"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode error data failed: %v", err)
	}
	if data.Field != "order_type" {
		t.Fatalf("want field order_type got %q", data.Field)
	}
}
