package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/pkg/mpesa"
)

// seedMpesaOrder creates a committed order awaiting an M-Pesa outcome.
func seedMpesaOrder(t *testing.T, db *gorm.DB, userID uint) models.Order {
	t.Helper()
	order := models.Order{
		UserID:            userID,
		Total:             2500,
		Status:            models.OrderPending,
		PaymentMethod:     models.MethodMpesa,
		PaymentStatus:     models.PaymentPending,
		PaymentPhone:      "254712345678",
		CheckoutRequestID: "ws_CO_test_1",
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func successCallback(orderID uint, receipt string) mpesa.CallbackEnvelope {
	raw := `{
	  "Body": {"stkCallback": {
	    "MerchantRequestID": "mr-1",
	    "CheckoutRequestID": "ws_CO_test_1",
	    "ResultCode": 0,
	    "ResultDesc": "The service request is processed successfully.",
	    "CallbackMetadata": {"Item": [
	      {"Name": "Amount", "Value": 2500},
	      {"Name": "MpesaReceiptNumber", "Value": "` + receipt + `"},
	      {"Name": "PhoneNumber", "Value": 254712345678},
	      {"Name": "AccountReference", "Value": "` + mpesa.MerchantRef(orderID) + `"}
	    ]}
	  }}
	}`
	var env mpesa.CallbackEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		panic(err)
	}
	return env
}

func failureCallback() mpesa.CallbackEnvelope {
	raw := `{"Body":{"stkCallback":{"MerchantRequestID":"mr-1","CheckoutRequestID":"ws_CO_test_1","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`
	var env mpesa.CallbackEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		panic(err)
	}
	return env
}

func TestCallbackSettlesPayment(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "settle@example.com")
	order := seedMpesaOrder(t, db, user.ID)
	svc := NewPaymentService(db, mpesa.New(mpesa.Config{}))

	svc.HandleCallback(context.Background(), successCallback(order.ID, "NLJ7RT61SV"))

	var got models.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "NLJ7RT61SV", got.MpesaReceipt)
	assert.Equal(t, models.MethodMpesa, got.PaymentMethod)
	assert.Equal(t, models.OrderPending, got.Status, "settlement must not advance the fulfilment status")
}

func TestCallbackReplayIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "replay@example.com")
	order := seedMpesaOrder(t, db, user.ID)
	svc := NewPaymentService(db, mpesa.New(mpesa.Config{}))

	svc.HandleCallback(context.Background(), successCallback(order.ID, "RECEIPT-A"))
	// Daraja redelivers; a later failure callback must not undo the payment.
	svc.HandleCallback(context.Background(), successCallback(order.ID, "RECEIPT-B"))
	svc.HandleCallback(context.Background(), failureCallback())

	var got models.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "RECEIPT-A", got.MpesaReceipt, "first settlement wins")
}

func TestCallbackFailureWithoutReference(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "cancel@example.com")
	order := seedMpesaOrder(t, db, user.ID)
	svc := NewPaymentService(db, mpesa.New(mpesa.Config{}))

	// Failed prompts carry no metadata, so resolution falls back to the
	// CheckoutRequestID recorded at push time.
	svc.HandleCallback(context.Background(), failureCallback())

	var got models.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, models.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, models.OrderPending, got.Status)
}

func TestCallbackUnknownOrderIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, mpesa.New(mpesa.Config{}))

	// Must not panic or create anything.
	svc.HandleCallback(context.Background(), successCallback(9999, "X"))

	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

// newFakeDaraja serves OAuth plus an stkquery endpoint returning resultCode.
func newFakeDaraja(t *testing.T, resultCode string) *mpesa.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "t", "expires_in": "3599"})
		case "/mpesa/stkquery/v1/query":
			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode": "0",
				"ResultCode":   resultCode,
				"ResultDesc":   "done",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	return mpesa.New(mpesa.Config{
		BaseURL:        srv.URL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
	})
}

func TestVerifySettlesFromQuery(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "verify@example.com")
	order := seedMpesaOrder(t, db, user.ID)
	svc := NewPaymentService(db, newFakeDaraja(t, "0"))

	got, err := svc.Verify(context.Background(), order.ID, "", user.ID, false)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
}

func TestVerifyFailedPrompt(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "verifyfail@example.com")
	order := seedMpesaOrder(t, db, user.ID)
	svc := NewPaymentService(db, newFakeDaraja(t, "1032"))

	got, err := svc.Verify(context.Background(), order.ID, "", user.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, models.PaymentFailed, got.PaymentStatus)
}

func TestVerifyGuards(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "guards@example.com")
	other := seedUser(t, db, "guards2@example.com")
	order := seedMpesaOrder(t, db, user.ID)
	svc := NewPaymentService(db, newFakeDaraja(t, "0"))

	_, err := svc.Verify(context.Background(), order.ID, "", other.ID, false)
	assert.ErrorIs(t, err, ErrNotFound, "other customers cannot probe the order")

	codOrder := models.Order{UserID: user.ID, PaymentMethod: models.MethodCOD, PaymentStatus: models.PaymentPending}
	require.NoError(t, db.Create(&codOrder).Error)
	_, err = svc.Verify(context.Background(), codOrder.ID, "", user.ID, false)
	assert.ErrorIs(t, err, ErrNotMpesaOrder)

	// Settle, then verify again: already-final payments are reported
	// without another gateway round trip.
	_, err = svc.Verify(context.Background(), order.ID, "", user.ID, false)
	require.NoError(t, err)
	got, err := svc.Verify(context.Background(), order.ID, "", user.ID, false)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, "Payment already settled", got.ResultDesc)
}

func TestInitiateUnconfigured(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "noconf@example.com")
	order := seedMpesaOrder(t, db, user.ID)
	svc := NewPaymentService(db, mpesa.New(mpesa.Config{}))

	info := svc.Initiate(context.Background(), &order)
	require.NotNil(t, info)
	assert.False(t, info.Initiated)
	assert.NotEmpty(t, info.Error)
}
