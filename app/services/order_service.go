package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/app/repositories"
	"github.com/modernhardware/api/pkg/logger"
	"github.com/modernhardware/api/pkg/metrics"
	"github.com/modernhardware/api/pkg/orm"
)

// OrderService owns checkout and the order lifecycle.
type OrderService struct {
	orders   *repositories.OrderRepository
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
	payments *PaymentService
}

func NewOrderService(db *gorm.DB, payments *PaymentService) *OrderService {
	return &OrderService{
		orders:   repositories.NewOrderRepository(db),
		carts:    repositories.NewCartRepository(db),
		products: repositories.NewProductRepository(db),
		payments: payments,
	}
}

// CheckoutInput is the validated payload for Checkout.
type CheckoutInput struct {
	PaymentMethod   string
	Phone           string
	ShippingAddress string
}

// CheckoutResult is the committed order plus the payment hand-off, which for
// M-Pesa orders reports whether the STK prompt went out.
type CheckoutResult struct {
	Order   models.Order `json:"order"`
	Payment *PaymentInfo `json:"mpesa"`
}

// Checkout converts the user's cart into an order.
//
// Order insert, stock decrements and the cart clear run in one database
// transaction. Stock is reserved with a conditional decrement, so two
// simultaneous checkouts can never both take the last unit; the loser's
// transaction rolls back whole and their cart survives untouched.
//
// The STK push happens after commit. A failed push leaves a valid order with
// payment pending, retryable via verify, and is reported in the result
// rather than failing the checkout.
func (s *OrderService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (CheckoutResult, error) {
	items, err := s.carts.ItemsFor(userID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(items) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	order := models.Order{
		UserID:          userID,
		Status:          models.OrderPending,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		PaymentPhone:    in.Phone,
		ShippingAddress: in.ShippingAddress,
	}
	for _, item := range items {
		if item.Product == nil {
			return CheckoutResult{}, ErrNotFound
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
		order.Total += int64(item.Quantity) * item.Product.Price
	}

	err = s.orders.Transaction(func(tx *orm.Query) error {
		for _, item := range items {
			ok, err := s.products.DecrementStock(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				metrics.StockRejections.Inc()
				// The cart snapshot may be stale; report what the row
				// actually holds.
				available, serr := s.products.StockTx(tx, item.ProductID)
				if serr != nil {
					available = item.Product.Stock
				}
				return &InsufficientStockError{
					ProductID: item.ProductID,
					Name:      item.Product.Name,
					Requested: item.Quantity,
					Available: available,
				}
			}
		}

		if err := s.orders.CreateTx(tx, &order); err != nil {
			return err
		}

		return s.carts.ClearTx(tx, userID)
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	metrics.OrdersCreated.WithLabelValues(order.PaymentMethod).Inc()
	logger.WithCtx(ctx).Info("order created",
		"order_id", order.ID, "user_id", userID,
		"total", order.Total, "payment_method", order.PaymentMethod)

	result := CheckoutResult{Order: order}
	if order.PaymentMethod == models.MethodMpesa && s.payments != nil {
		result.Payment = s.payments.Initiate(ctx, &order)
	}
	return result, nil
}

// ForUser returns one page of the user's own orders.
func (s *OrderService) ForUser(userID uint, page, limit int) ([]models.Order, orm.Pagination, error) {
	return s.orders.ForUser(userID, page, limit)
}

// Get returns one order. Customers only see their own; admins see all.
func (s *OrderService) Get(id, userID uint, isAdmin bool) (models.Order, error) {
	order, err := s.orders.FindByID(id)
	if err != nil {
		if orm.IsNotFound(err) {
			return models.Order{}, ErrNotFound
		}
		return models.Order{}, err
	}
	if !isAdmin && order.UserID != userID {
		// Hidden, not forbidden: don't leak that the order exists.
		return models.Order{}, ErrNotFound
	}
	return order, nil
}

// All returns one page of every order, optionally filtered by status.
func (s *OrderService) All(status string, page, limit int) ([]models.Order, orm.Pagination, error) {
	return s.orders.All(status, page, limit)
}

// UpdateStatus moves an order to a new fulfilment status.
func (s *OrderService) UpdateStatus(id uint, status string) (models.Order, error) {
	ok, err := s.orders.UpdateStatus(id, status)
	if err != nil {
		return models.Order{}, err
	}
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return s.orders.FindByID(id)
}
