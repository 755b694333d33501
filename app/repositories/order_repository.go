package repositories

import (
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/pkg/orm"
)

// OrderRepository handles database operations for Order and OrderItem.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) q() *orm.Query { return orm.New(r.db) }

// Transaction runs fn inside one database transaction.
func (r *OrderRepository) Transaction(fn func(tx *orm.Query) error) error {
	return r.q().Transaction(fn)
}

// CreateTx inserts the order header and its items inside tx. Item rows are
// part of the Order value, so a single create cascades to order_items.
func (r *OrderRepository) CreateTx(tx *orm.Query, order *models.Order) error {
	return tx.Create(order)
}

// ForUser returns one page of a user's own orders, newest first.
func (r *OrderRepository) ForUser(userID uint, page, limit int) ([]models.Order, orm.Pagination, error) {
	var orders []models.Order
	pagination, err := r.q().Model(&models.Order{}).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID).
		Order("id desc").
		GetWithPagination(&orders, page, limit)
	return orders, pagination, err
}

// All returns one page of every order, optionally filtered by fulfilment
// status.
func (r *OrderRepository) All(status string, page, limit int) ([]models.Order, orm.Pagination, error) {
	q := r.q().Model(&models.Order{}).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("User")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	pagination, err := q.Order("id desc").GetWithPagination(&orders, page, limit)
	return orders, pagination, err
}

// FindByID returns one order with items and products attached.
func (r *OrderRepository) FindByID(id uint) (models.Order, error) {
	var order models.Order
	err := r.q().Model(&models.Order{}).
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("id = ?", id).
		First(&order)
	return order, err
}

// FindByCheckoutRequestID resolves an order from its Daraja push handle.
func (r *OrderRepository) FindByCheckoutRequestID(checkoutRequestID string) (models.Order, error) {
	var order models.Order
	err := r.q().Model(&models.Order{}).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&order)
	return order, err
}

// UpdateStatus moves an order to a new fulfilment status.
func (r *OrderRepository) UpdateStatus(id uint, status string) (bool, error) {
	n, err := r.q().Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetCheckoutRequestID records the Daraja handle returned by an STK push.
func (r *OrderRepository) SetCheckoutRequestID(id uint, checkoutRequestID string) error {
	_, err := r.q().Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"checkout_request_id": checkoutRequestID})
	return err
}

// MarkPaid settles a pending payment. The payment_status guard makes the
// transition idempotent: replayed callbacks match zero rows and report false.
// Only payment fields are touched; the lifecycle status stays with the
// admin. receipt may be empty when the outcome came from a status query
// rather than a callback.
func (r *OrderRepository) MarkPaid(id uint, receipt string) (bool, error) {
	updates := map[string]interface{}{
		"payment_status": models.PaymentPaid,
		"payment_method": models.MethodMpesa,
	}
	if receipt != "" {
		updates["mpesa_receipt"] = receipt
	}

	n, err := r.q().Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentPending).
		Updates(updates)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkFailed records a failed payment, again only from pending.
func (r *OrderRepository) MarkFailed(id uint) (bool, error) {
	n, err := r.q().Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentPending).
		Updates(map[string]interface{}{"payment_status": models.PaymentFailed})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
