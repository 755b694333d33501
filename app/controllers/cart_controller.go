package controllers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/services"
	"github.com/modernhardware/api/pkg/bind"
	"github.com/modernhardware/api/pkg/middleware"
	"github.com/modernhardware/api/pkg/response"
)

// CartController serves the authenticated user's cart.
type CartController struct {
	service *services.CartService
}

func NewCartController(db *gorm.DB) *CartController {
	return &CartController{service: services.NewCartService(db)}
}

// Show returns the cart with its running total.
func (c *CartController) Show(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	cart, err := c.service.Items(userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, cart)
}

type addToCartRequest struct {
	ProductID uint `json:"product_id" validate:"required,gte=1"`
	Quantity  int  `json:"quantity"   validate:"nullable,gte=1,lte=1000"`
}

// Add puts a product in the cart, merging with an existing line.
func (c *CartController) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body addToCartRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	cart, err := c.service.Add(userID, body.ProductID, body.Quantity)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, cart)
}

type updateCartRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=1000"`
}

// UpdateItem sets the quantity for one cart line. Zero removes it.
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	productID, err := paramID(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var body updateCartRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	cart, err := c.service.SetQuantity(userID, productID, body.Quantity)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, cart)
}

// RemoveItem drops one product from the cart.
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	productID, err := paramID(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	cart, err := c.service.RemoveItem(userID, productID)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, cart)
}

// Clear empties the cart.
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	if err := c.service.Clear(userID); err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, nil)
}
