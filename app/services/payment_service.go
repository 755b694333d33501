package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/app/repositories"
	"github.com/modernhardware/api/pkg/logger"
	"github.com/modernhardware/api/pkg/metrics"
	"github.com/modernhardware/api/pkg/mpesa"
	"github.com/modernhardware/api/pkg/orm"
)

// stkTimeout bounds the outbound Daraja calls so a slow gateway cannot hold
// a checkout request open indefinitely.
const stkTimeout = 15 * time.Second

// PaymentService drives M-Pesa payments: the STK push at checkout, the
// asynchronous result callback, and the customer-initiated status check.
type PaymentService struct {
	orders *repositories.OrderRepository
	client *mpesa.Client
}

func NewPaymentService(db *gorm.DB, client *mpesa.Client) *PaymentService {
	return &PaymentService{
		orders: repositories.NewOrderRepository(db),
		client: client,
	}
}

// PaymentInfo reports the STK push hand-off to the checkout caller.
type PaymentInfo struct {
	Initiated         bool   `json:"initiated"`
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`
	CustomerMessage   string `json:"customer_message,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Initiate sends the STK prompt for a freshly committed order. Failures are
// reported, not returned: the order already exists and the customer can
// retry via verify.
func (s *PaymentService) Initiate(ctx context.Context, order *models.Order) *PaymentInfo {
	if !s.client.Configured() {
		logger.WithCtx(ctx).Warn("mpesa not configured, skipping stk push", "order_id", order.ID)
		return &PaymentInfo{Error: "mpesa is not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, stkTimeout)
	defer cancel()

	resp, err := s.client.STKPush(ctx, order.PaymentPhone, order.Total, mpesa.MerchantRef(order.ID))
	if err != nil {
		metrics.StkPushes.WithLabelValues("error").Inc()
		logger.WithCtx(ctx).Error("stk push failed", "order_id", order.ID, "error", err)
		return &PaymentInfo{Error: "payment request could not be sent"}
	}
	if !resp.Accepted() {
		metrics.StkPushes.WithLabelValues("rejected").Inc()
		logger.WithCtx(ctx).Warn("stk push rejected",
			"order_id", order.ID, "response_code", resp.ResponseCode, "description", resp.ResponseDescription)
		return &PaymentInfo{Error: resp.ResponseDescription}
	}

	metrics.StkPushes.WithLabelValues("accepted").Inc()
	if err := s.orders.SetCheckoutRequestID(order.ID, resp.CheckoutRequestID); err != nil {
		logger.WithCtx(ctx).Error("record checkout request id", "order_id", order.ID, "error", err)
	}
	order.CheckoutRequestID = resp.CheckoutRequestID

	return &PaymentInfo{
		Initiated:         true,
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   resp.CustomerMessage,
	}
}

// HandleCallback settles an order from a Daraja result callback.
//
// Transitions only fire while payment_status is pending, so replayed or
// duplicated callbacks are no-ops. Errors are logged and swallowed: the
// gateway is always acknowledged, since Daraja retries on anything else.
func (s *PaymentService) HandleCallback(ctx context.Context, env mpesa.CallbackEnvelope) {
	cb := env.Body.StkCallback
	log := logger.WithCtx(ctx)

	orderID, err := mpesa.ParseMerchantRef(cb.AccountReference())
	if err != nil {
		// Failed prompts carry no metadata; fall back to the push handle.
		orderID, err = s.findByCheckoutRequestID(cb.CheckoutRequestID)
		if err != nil {
			metrics.PaymentCallbacks.WithLabelValues("ignored").Inc()
			log.Warn("callback matched no order",
				"checkout_request_id", cb.CheckoutRequestID, "result_code", cb.ResultCode)
			return
		}
	}

	if cb.Succeeded() {
		ok, err := s.orders.MarkPaid(orderID, cb.Receipt())
		switch {
		case err != nil:
			log.Error("mark order paid", "order_id", orderID, "error", err)
		case ok:
			metrics.PaymentCallbacks.WithLabelValues("paid").Inc()
			log.Info("payment settled", "order_id", orderID, "receipt", cb.Receipt())
		default:
			metrics.PaymentCallbacks.WithLabelValues("ignored").Inc()
			log.Info("callback replay ignored", "order_id", orderID)
		}
		return
	}

	ok, err := s.orders.MarkFailed(orderID)
	switch {
	case err != nil:
		log.Error("mark order failed", "order_id", orderID, "error", err)
	case ok:
		metrics.PaymentCallbacks.WithLabelValues("failed").Inc()
		log.Info("payment failed", "order_id", orderID,
			"result_code", cb.ResultCode, "result_desc", cb.ResultDesc)
	default:
		metrics.PaymentCallbacks.WithLabelValues("ignored").Inc()
	}
}

// VerifyResult reports a status-check outcome to the customer.
type VerifyResult struct {
	Success       bool   `json:"success"`
	PaymentStatus string `json:"payment_status"`
	ResultDesc    string `json:"result_desc"`
}

// Verify asks Daraja for the outcome of an order's STK prompt and settles
// the order accordingly. Used when the callback was delayed or lost.
// checkoutRequestID is a caller-supplied fallback for orders whose push
// handle was never recorded.
func (s *PaymentService) Verify(ctx context.Context, orderID uint, checkoutRequestID string, userID uint, isAdmin bool) (VerifyResult, error) {
	order, err := s.orders.FindByID(orderID)
	if err != nil {
		if orm.IsNotFound(err) {
			return VerifyResult{}, ErrNotFound
		}
		return VerifyResult{}, err
	}
	if !isAdmin && order.UserID != userID {
		return VerifyResult{}, ErrNotFound
	}

	if order.PaymentMethod != models.MethodMpesa {
		return VerifyResult{}, ErrNotMpesaOrder
	}
	handle := order.CheckoutRequestID
	if handle == "" {
		handle = checkoutRequestID
	}
	if handle == "" {
		return VerifyResult{}, ErrNotMpesaOrder
	}
	if order.PaymentStatus != models.PaymentPending {
		// Already settled; report the final state without touching Daraja.
		return VerifyResult{
			Success:       order.PaymentStatus == models.PaymentPaid,
			PaymentStatus: order.PaymentStatus,
			ResultDesc:    "Payment already settled",
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, stkTimeout)
	defer cancel()

	resp, err := s.client.Query(ctx, handle)
	if err != nil {
		return VerifyResult{}, err
	}

	if resp.Paid() {
		if _, err := s.orders.MarkPaid(order.ID, ""); err != nil {
			return VerifyResult{}, err
		}
	} else if resp.ResultCode != "" {
		// A present non-zero result means the prompt finished unsuccessfully.
		// An empty one means it is still outstanding; leave the order alone.
		if _, err := s.orders.MarkFailed(order.ID); err != nil {
			return VerifyResult{}, err
		}
	}

	order, err = s.orders.FindByID(order.ID)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{
		Success:       order.PaymentStatus == models.PaymentPaid,
		PaymentStatus: order.PaymentStatus,
		ResultDesc:    resp.ResultDesc,
	}, nil
}

func (s *PaymentService) findByCheckoutRequestID(checkoutRequestID string) (uint, error) {
	if checkoutRequestID == "" {
		return 0, orm.ErrNotFound
	}
	order, err := s.orders.FindByCheckoutRequestID(checkoutRequestID)
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}
