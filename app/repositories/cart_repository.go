package repositories

import (
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/pkg/orm"
)

// CartRepository handles database operations for CartItem.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) q() *orm.Query { return orm.New(r.db) }

// ItemsFor returns a user's cart with products attached, oldest first.
func (r *CartRepository) ItemsFor(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.q().Model(&models.CartItem{}).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id asc").
		Get(&items)
	return items, err
}

// Find returns the user's cart row for a product, orm.ErrNotFound if absent.
func (r *CartRepository) Find(userID, productID uint) (models.CartItem, error) {
	var item models.CartItem
	err := r.q().Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item)
	return item, err
}

// Create inserts a new cart row.
func (r *CartRepository) Create(item *models.CartItem) error {
	return r.q().Create(item)
}

// Update persists a quantity change.
func (r *CartRepository) Update(item *models.CartItem) error {
	return r.q().Save(item)
}

// Remove deletes one product from the user's cart.
func (r *CartRepository) Remove(userID, productID uint) error {
	return r.q().Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
}

// ClearTx empties the user's cart inside a checkout transaction.
func (r *CartRepository) ClearTx(tx *orm.Query, userID uint) error {
	return tx.Where("user_id = ?", userID).Delete(&models.CartItem{})
}

// Clear empties the user's cart.
func (r *CartRepository) Clear(userID uint) error {
	return r.ClearTx(r.q(), userID)
}
