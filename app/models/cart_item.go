package models

import "time"

// CartItem is one product in a user's cart. Each user holds at most one row
// per product; adding the same product again bumps the quantity.
//
// No gorm.Model here: cart rows are hard-deleted, since a soft-deleted row
// would keep the (user, product) unique index occupied.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
}
