package services

import (
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/app/repositories"
	"github.com/modernhardware/api/pkg/orm"
)

// CartService manages each user's cart. Quantities are capped at current
// stock on write, but the checkout transaction is the real guard.
type CartService struct {
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{
		carts:    repositories.NewCartRepository(db),
		products: repositories.NewProductRepository(db),
	}
}

// Cart is a user's cart with its running total.
type Cart struct {
	Items []models.CartItem `json:"items"`
	Total int64             `json:"total"`
	Count int               `json:"count"`
}

// Items returns the user's cart priced at current catalogue prices.
func (s *CartService) Items(userID uint) (Cart, error) {
	items, err := s.carts.ItemsFor(userID)
	if err != nil {
		return Cart{}, err
	}

	cart := Cart{Items: items}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	for _, item := range items {
		cart.Count += item.Quantity
		if item.Product != nil {
			cart.Total += int64(item.Quantity) * item.Product.Price
		}
	}
	return cart, nil
}

// Add puts qty units of a product in the cart, merging with any existing
// row. The resulting quantity is capped at available stock.
func (s *CartService) Add(userID, productID uint, qty int) (Cart, error) {
	if qty < 1 {
		qty = 1
	}

	product, err := s.products.FindByID(productID)
	if err != nil {
		if orm.IsNotFound(err) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}
	if product.Stock < 1 {
		return Cart{}, &InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: qty,
			Available: product.Stock,
		}
	}

	item, err := s.carts.Find(userID, productID)
	switch {
	case err == nil:
		item.Quantity += qty
		if item.Quantity > product.Stock {
			item.Quantity = product.Stock
		}
		if err := s.carts.Update(&item); err != nil {
			return Cart{}, err
		}
	case orm.IsNotFound(err):
		if qty > product.Stock {
			qty = product.Stock
		}
		item = models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
		if err := s.carts.Create(&item); err != nil {
			return Cart{}, err
		}
	default:
		return Cart{}, err
	}

	return s.Items(userID)
}

// SetQuantity replaces the quantity for one cart line. Zero removes it.
func (s *CartService) SetQuantity(userID, productID uint, qty int) (Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(userID, productID)
	}

	product, err := s.products.FindByID(productID)
	if err != nil {
		if orm.IsNotFound(err) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}

	item, err := s.carts.Find(userID, productID)
	if err != nil {
		if orm.IsNotFound(err) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}

	if qty > product.Stock {
		qty = product.Stock
	}
	if qty < 1 {
		return s.RemoveItem(userID, productID)
	}

	item.Quantity = qty
	if err := s.carts.Update(&item); err != nil {
		return Cart{}, err
	}
	return s.Items(userID)
}

// RemoveItem drops one product from the cart.
func (s *CartService) RemoveItem(userID, productID uint) (Cart, error) {
	if err := s.carts.Remove(userID, productID); err != nil {
		return Cart{}, err
	}
	return s.Items(userID)
}

// Clear empties the cart.
func (s *CartService) Clear(userID uint) error {
	return s.carts.Clear(userID)
}
