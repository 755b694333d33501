package controllers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/app/services"
	"github.com/modernhardware/api/pkg/bind"
	"github.com/modernhardware/api/pkg/middleware"
	"github.com/modernhardware/api/pkg/mpesa"
	"github.com/modernhardware/api/pkg/response"
)

// OrderController serves checkout, order history and the payment endpoints.
type OrderController struct {
	orders   *services.OrderService
	payments *services.PaymentService
}

func NewOrderController(db *gorm.DB, client *mpesa.Client) *OrderController {
	payments := services.NewPaymentService(db, client)
	return &OrderController{
		orders:   services.NewOrderService(db, payments),
		payments: payments,
	}
}

type checkoutRequest struct {
	PaymentMethod   string `json:"payment_method"   validate:"required,in=cod,mpesa"`
	Phone           string `json:"phone"            validate:"required,min=9,max=15"`
	ShippingAddress string `json:"shipping_address" validate:"required,min=5,max=1000"`
}

// Checkout converts the cart into an order and, for M-Pesa, fires the STK
// prompt.
func (c *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body checkoutRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	if body.PaymentMethod == models.MethodMpesa {
		if _, err := mpesa.NormalizePhone(body.Phone); err != nil {
			response.ValidationError(w, map[string]string{
				"phone": "The phone must be a valid Kenyan mobile number.",
			})
			return
		}
	}

	result, err := c.orders.Checkout(r.Context(), userID, services.CheckoutInput{
		PaymentMethod:   body.PaymentMethod,
		Phone:           body.Phone,
		ShippingAddress: body.ShippingAddress,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, result)
}

// Index lists orders: customers see their own, admins see everyone's and
// may filter with ?status=.
func (c *OrderController) Index(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	role, _ := middleware.RoleFromCtx(r)
	if role == models.RoleAdmin {
		status := r.URL.Query().Get("status")
		if status != "" && !models.ValidOrderStatus(status) {
			response.Error(w, http.StatusBadRequest, "Unknown order status")
			return
		}
		orders, pagination, err := c.orders.All(status, queryInt(r, "page", 1), queryInt(r, "limit", 20))
		if err != nil {
			fail(w, r, err)
			return
		}
		response.Success(w, map[string]interface{}{"orders": orders, "pagination": pagination})
		return
	}

	orders, pagination, err := c.orders.ForUser(userID, queryInt(r, "page", 1), queryInt(r, "limit", 10))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, map[string]interface{}{"orders": orders, "pagination": pagination})
}

// Show returns one order, admins see all, customers only their own.
func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := paramID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	role, _ := middleware.RoleFromCtx(r)
	order, err := c.orders.Get(id, userID, role == models.RoleAdmin)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, order)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,in=pending,processing,shipped,delivered"`
}

// UpdateStatus moves an order to a new fulfilment status.
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := paramID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var body updateStatusRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.UpdateStatus(id, body.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, order)
}

type verifyRequest struct {
	OrderID           uint   `json:"order_id"            validate:"required"`
	CheckoutRequestID string `json:"checkout_request_id" validate:"nullable,max=100"`
}

// Verify re-checks an order's STK prompt against Daraja.
func (c *OrderController) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body verifyRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	role, _ := middleware.RoleFromCtx(r)
	result, err := c.payments.Verify(r.Context(), body.OrderID, body.CheckoutRequestID, userID, role == models.RoleAdmin)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, result)
}

// MpesaCallback receives Daraja's asynchronous payment result.
//
// It always acknowledges with {"success": true}: any other reply makes
// Daraja retry, and settlement is already idempotent.
func (c *OrderController) MpesaCallback(w http.ResponseWriter, r *http.Request) {
	var env mpesa.CallbackEnvelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&env); err == nil {
		c.payments.HandleCallback(r.Context(), env)
	}
	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
