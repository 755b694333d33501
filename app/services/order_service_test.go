package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernhardware/api/app/models"
)

func TestCheckoutCOD(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	orders := NewOrderService(db, nil)
	user := seedUser(t, db, "checkout@example.com")
	hammer := seedProduct(t, db, "Claw Hammer", 850, 10)
	drill := seedProduct(t, db, "Cordless Drill", 7500, 5)

	_, err := carts.Add(user.ID, hammer.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(user.ID, drill.ID, 1)
	require.NoError(t, err)

	result, err := orders.Checkout(context.Background(), user.ID, CheckoutInput{
		PaymentMethod:   models.MethodCOD,
		ShippingAddress: "Tom Mboya St, Nairobi",
	})
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, int64(2*850+7500), order.Total)
	require.Len(t, order.Items, 2)
	assert.Nil(t, result.Payment, "cod checkout involves no gateway")

	// Stock is reserved.
	var p models.Product
	require.NoError(t, db.First(&p, hammer.ID).Error)
	assert.Equal(t, 8, p.Stock)

	// Cart is emptied in the same transaction.
	cart, err := carts.Items(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, nil)
	user := seedUser(t, db, "empty@example.com")

	_, err := orders.Checkout(context.Background(), user.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	orders := NewOrderService(db, nil)
	user := seedUser(t, db, "rollback@example.com")
	hammer := seedProduct(t, db, "Claw Hammer", 850, 10)
	saw := seedProduct(t, db, "Hand Saw", 1200, 2)

	_, err := carts.Add(user.ID, hammer.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(user.ID, saw.ID, 2)
	require.NoError(t, err)

	// Stock shrinks between carting and checkout.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", saw.ID).Update("stock", 1).Error)

	_, err = orders.Checkout(context.Background(), user.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, saw.ID, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available, "error reports the row's stock at decrement time")

	// Everything rolled back: no order, hammer stock untouched, cart intact.
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	var p models.Product
	require.NoError(t, db.First(&p, hammer.ID).Error)
	assert.Equal(t, 10, p.Stock, "earlier decrements in the transaction must roll back")

	cart, err := carts.Items(user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCheckoutCapturesPriceSnapshot(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	orders := NewOrderService(db, nil)
	user := seedUser(t, db, "snapshot@example.com")
	p := seedProduct(t, db, "Angle Grinder", 5000, 10)

	_, err := carts.Add(user.ID, p.ID, 1)
	require.NoError(t, err)

	result, err := orders.Checkout(context.Background(), user.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	require.NoError(t, err)

	// A later price hike must not touch the committed order.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 9999).Error)

	got, err := orders.Get(result.Order.ID, user.ID, false)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(5000), got.Items[0].Price)
	assert.Equal(t, int64(5000), got.Total)
}

func TestSequentialCheckoutsCannotOversell(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	orders := NewOrderService(db, nil)
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	p := seedProduct(t, db, "Last Generator", 45000, 1)

	_, err := carts.Add(alice.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = carts.Add(bob.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = orders.Checkout(context.Background(), alice.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	require.NoError(t, err)

	_, err = orders.Checkout(context.Background(), bob.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr, "second checkout must lose the race")

	var p2 models.Product
	require.NoError(t, db.First(&p2, p.ID).Error)
	assert.Equal(t, 0, p2.Stock, "stock never goes negative")
}

func TestOrderVisibility(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	orders := NewOrderService(db, nil)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	p := seedProduct(t, db, "Spade", 700, 10)

	_, err := carts.Add(owner.ID, p.ID, 1)
	require.NoError(t, err)
	result, err := orders.Checkout(context.Background(), owner.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	require.NoError(t, err)

	_, err = orders.Get(result.Order.ID, owner.ID, false)
	assert.NoError(t, err)

	_, err = orders.Get(result.Order.ID, other.ID, false)
	assert.ErrorIs(t, err, ErrNotFound, "someone else's order must look nonexistent")

	_, err = orders.Get(result.Order.ID, other.ID, true)
	assert.NoError(t, err, "admins see every order")
}

func TestUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	orders := NewOrderService(db, nil)
	user := seedUser(t, db, "status@example.com")
	p := seedProduct(t, db, "Wheelbarrow", 4500, 3)

	_, err := carts.Add(user.ID, p.ID, 1)
	require.NoError(t, err)
	result, err := orders.Checkout(context.Background(), user.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	require.NoError(t, err)

	got, err := orders.UpdateStatus(result.Order.ID, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.Status)

	_, err = orders.UpdateStatus(9999, models.OrderShipped)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeletedProductStaysInHistory(t *testing.T) {
	db := newTestDB(t)
	carts := NewCartService(db)
	orders := NewOrderService(db, nil)
	products := NewProductService(db)
	user := seedUser(t, db, "history@example.com")
	p := seedProduct(t, db, "Discontinued Sander", 3200, 5)

	_, err := carts.Add(user.ID, p.ID, 1)
	require.NoError(t, err)
	result, err := orders.Checkout(context.Background(), user.ID, CheckoutInput{PaymentMethod: models.MethodCOD})
	require.NoError(t, err)

	require.NoError(t, products.Delete(p.ID))

	_, err = products.Get(p.ID)
	assert.ErrorIs(t, err, ErrNotFound, "deleted products vanish from the catalogue")

	got, err := orders.Get(result.Order.ID, user.ID, false)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product, "order history must still resolve the product")
	assert.Equal(t, "Discontinued Sander", got.Items[0].Product.Name)
}
