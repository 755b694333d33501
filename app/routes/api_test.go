package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/pkg/auth"
	"github.com/modernhardware/api/pkg/mpesa"
	"github.com/modernhardware/api/pkg/router"
)

// newAPI wires the full route table over a fresh in-memory database.
func newAPI(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Product{},
		&models.Order{}, &models.OrderItem{}, &models.CartItem{},
	))

	r := router.New()
	RegisterAPI(r, db, mpesa.New(mpesa.Config{}))
	return r.Handler(), db
}

// do runs one JSON request through the handler, with an optional bearer token.
func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// envelope mirrors the response wrapper for decoding in assertions.
type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func tokenFor(t *testing.T, db *gorm.DB, role string) (string, models.User) {
	t.Helper()
	hashed, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user := models.User{
		Name:     "Route Test",
		Email:    fmt.Sprintf("%s-%s@example.com", t.Name(), role),
		Password: hashed,
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := auth.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token, user
}

func TestRegisterLoginFlow(t *testing.T) {
	h, _ := newAPI(t)

	w := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Wanjiku",
		"email":    "flow@example.com",
		"password": "longenough1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "flow@example.com",
		"password": "longenough1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.NotEmpty(t, data.Token)

	w = do(t, h, http.MethodGet, "/api/auth/me", data.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newAPI(t)

	w := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "W",
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	assert.Contains(t, env.Errors, "name")
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
}

func TestCatalogueIsPublic(t *testing.T) {
	h, db := newAPI(t)
	require.NoError(t, db.Create(&models.Product{Name: "Hammer", Price: 850, Stock: 5}).Error)

	for _, path := range []string{"/api/products", "/api/products/featured", "/api/products/categories", "/api/products/1"} {
		w := do(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestCartRequiresAuth(t *testing.T) {
	h, _ := newAPI(t)

	w := do(t, h, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/cart", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminGuard(t *testing.T) {
	h, db := newAPI(t)
	customerToken, _ := tokenFor(t, db, models.RoleCustomer)
	adminToken, _ := tokenFor(t, db, models.RoleAdmin)

	product := map[string]interface{}{"name": "New Drill", "price": 7500, "stock": 10}

	w := do(t, h, http.MethodPost, "/api/products", "", product)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/products", customerToken, product)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPost, "/api/products", adminToken, product)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCheckoutOverHTTP(t *testing.T) {
	h, db := newAPI(t)
	token, _ := tokenFor(t, db, models.RoleCustomer)
	p := models.Product{Name: "Cement Bag", Price: 650, Stock: 100}
	require.NoError(t, db.Create(&p).Error)

	w := do(t, h, http.MethodPost, "/api/cart", token, map[string]interface{}{
		"product_id": p.ID, "quantity": 3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/orders", token, map[string]string{
		"payment_method":   "cod",
		"phone":            "0712345678",
		"shipping_address": "Moi Avenue, Nairobi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, int64(3*650), result.Order.Total)

	// And the order shows up in history.
	w = do(t, h, http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutRejectsBadPaymentMethod(t *testing.T) {
	h, db := newAPI(t)
	token, _ := tokenFor(t, db, models.RoleCustomer)

	w := do(t, h, http.MethodPost, "/api/orders", token, map[string]string{
		"payment_method":   "barter",
		"phone":            "0712345678",
		"shipping_address": "Somewhere long enough",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Errors, "payment_method")
}

func TestCheckoutRequiresPhone(t *testing.T) {
	h, db := newAPI(t)
	token, _ := tokenFor(t, db, models.RoleCustomer)
	p := models.Product{Name: "Wheelbarrow", Price: 4500, Stock: 4}
	require.NoError(t, db.Create(&p).Error)

	w := do(t, h, http.MethodPost, "/api/cart", token, map[string]interface{}{
		"product_id": p.ID, "quantity": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Cash orders need a contact number too.
	w = do(t, h, http.MethodPost, "/api/orders", token, map[string]string{
		"payment_method":   "cod",
		"shipping_address": "Moi Avenue, Nairobi",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Errors, "phone")

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount, "validation failures must not create orders")
}

func TestCheckoutMpesaRequiresValidPhone(t *testing.T) {
	h, db := newAPI(t)
	token, _ := tokenFor(t, db, models.RoleCustomer)

	w := do(t, h, http.MethodPost, "/api/orders", token, map[string]string{
		"payment_method":   "mpesa",
		"phone":            "123456789012345",
		"shipping_address": "Moi Avenue, Nairobi",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Errors, "phone")
}

func TestMpesaCallbackAlwaysAcknowledges(t *testing.T) {
	h, db := newAPI(t)

	user := models.User{Name: "U", Email: "cb@example.com", Password: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	order := models.Order{
		UserID:        user.ID,
		Total:         650,
		PaymentMethod: models.MethodMpesa,
		PaymentStatus: models.PaymentPending,
	}
	require.NoError(t, db.Create(&order).Error)

	callback := map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"ResultCode": 0,
				"CallbackMetadata": map[string]interface{}{
					"Item": []map[string]interface{}{
						{"Name": "MpesaReceiptNumber", "Value": "ABC123XYZ"},
						{"Name": "AccountReference", "Value": fmt.Sprintf("MH%d", order.ID)},
					},
				},
			},
		},
	}

	w := do(t, h, http.MethodPost, "/api/orders/mpesa/callback", "", callback)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	var got models.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

	// Garbage still gets acknowledged; Daraja must never retry forever.
	req := httptest.NewRequest(http.MethodPost, "/api/orders/mpesa/callback", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestMpesaVerifyGuardsOverHTTP(t *testing.T) {
	h, db := newAPI(t)
	token, user := tokenFor(t, db, models.RoleCustomer)

	order := models.Order{UserID: user.ID, Total: 100, PaymentMethod: models.MethodCOD, PaymentStatus: models.PaymentPending}
	require.NoError(t, db.Create(&order).Error)

	// A cash order has nothing to verify.
	w := do(t, h, http.MethodPost, "/api/orders/mpesa/verify", token, map[string]interface{}{"order_id": order.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing order id fails validation.
	w = do(t, h, http.MethodPost, "/api/orders/mpesa/verify", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Errors, "order_id")
}

func TestOrderStatusUpdateByAdmin(t *testing.T) {
	h, db := newAPI(t)
	adminToken, _ := tokenFor(t, db, models.RoleAdmin)
	customerToken, customer := tokenFor(t, db, models.RoleCustomer)

	order := models.Order{UserID: customer.ID, Total: 100, Status: models.OrderPending, PaymentMethod: models.MethodCOD, PaymentStatus: models.PaymentPending}
	require.NoError(t, db.Create(&order).Error)

	path := fmt.Sprintf("/api/orders/%d/status", order.ID)

	w := do(t, h, http.MethodPut, path, customerToken, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodPut, path, adminToken, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPut, path, adminToken, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
