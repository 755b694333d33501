package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddAndTotal(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := seedUser(t, db, "cart@example.com")
	hammer := seedProduct(t, db, "Claw Hammer", 850, 10)
	drill := seedProduct(t, db, "Cordless Drill", 7500, 5)

	_, err := svc.Add(user.ID, hammer.ID, 2)
	require.NoError(t, err)
	cart, err := svc.Add(user.ID, drill.ID, 1)
	require.NoError(t, err)

	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Count)
	assert.Equal(t, int64(2*850+7500), cart.Total)
}

func TestCartAddMergesRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := seedUser(t, db, "merge@example.com")
	p := seedProduct(t, db, "Tape Measure", 300, 10)

	_, err := svc.Add(user.ID, p.ID, 2)
	require.NoError(t, err)
	cart, err := svc.Add(user.ID, p.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1, "same product merges into one row")
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartQuantityCappedAtStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := seedUser(t, db, "cap@example.com")
	p := seedProduct(t, db, "Paint Brush", 150, 3)

	cart, err := svc.Add(user.ID, p.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = svc.Add(user.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity, "merge must not exceed stock")
}

func TestCartAddOutOfStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := seedUser(t, db, "oos@example.com")
	p := seedProduct(t, db, "Rare Part", 9000, 0)

	_, err := svc.Add(user.ID, p.ID, 1)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p.ID, stockErr.ProductID)
}

func TestCartSetQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := seedUser(t, db, "setqty@example.com")
	p := seedProduct(t, db, "Wood Screws", 50, 100)

	_, err := svc.Add(user.ID, p.ID, 1)
	require.NoError(t, err)

	cart, err := svc.SetQuantity(user.ID, p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)

	cart, err = svc.SetQuantity(user.ID, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "zero quantity removes the line")
}

func TestCartRemoveAndReAdd(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	user := seedUser(t, db, "readd@example.com")
	p := seedProduct(t, db, "Pliers", 600, 10)

	_, err := svc.Add(user.ID, p.ID, 1)
	require.NoError(t, err)
	cart, err := svc.RemoveItem(user.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// The unique (user, product) index must not block re-adding.
	cart, err = svc.Add(user.ID, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}
