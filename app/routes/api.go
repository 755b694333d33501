package routes

import (
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/controllers"
	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/pkg/middleware"
	"github.com/modernhardware/api/pkg/mpesa"
	"github.com/modernhardware/api/pkg/rbac"
	"github.com/modernhardware/api/pkg/router"
)

// RegisterAPI mounts every storefront route.
func RegisterAPI(r *router.Router, db *gorm.DB, client *mpesa.Client) {
	authController := controllers.NewAuthController(db)
	productController := controllers.NewProductController(db)
	cartController := controllers.NewCartController(db)
	orderController := controllers.NewOrderController(db, client)

	api := r.Group("/api")

	// Public: browsing and account creation.
	api.Post("/auth/register", "auth.register", authController.Register)
	api.Post("/auth/login", "auth.login", authController.Login)

	api.Get("/products", "products.index", productController.Index)
	api.Get("/products/featured", "products.featured", productController.Featured)
	api.Get("/products/categories", "products.categories", productController.Categories)
	api.Get("/products/{id}", "products.show", productController.Show)

	// Daraja posts here; it cannot carry a bearer token.
	api.Post("/orders/mpesa/callback", "orders.mpesa.callback", orderController.MpesaCallback)

	// Authenticated customers.
	protected := api.Group("", middleware.Auth)

	protected.Get("/auth/me", "auth.me", authController.Profile)
	protected.Put("/auth/profile", "auth.profile.update", authController.UpdateProfile)

	protected.Get("/cart", "cart.show", cartController.Show)
	protected.Post("/cart", "cart.add", cartController.Add)
	protected.Put("/cart/{productId}", "cart.update", cartController.UpdateItem)
	protected.Delete("/cart/{productId}", "cart.remove", cartController.RemoveItem)
	protected.Delete("/cart", "cart.clear", cartController.Clear)

	protected.Post("/orders", "orders.checkout", orderController.Checkout)
	protected.Get("/orders", "orders.index", orderController.Index)
	protected.Get("/orders/{id}", "orders.show", orderController.Show)
	protected.Post("/orders/mpesa/verify", "orders.mpesa.verify", orderController.Verify)

	// Admin-only management.
	admin := api.Group("", middleware.Auth, rbac.HasRole(models.RoleAdmin))

	admin.Post("/products", "products.store", productController.Store)
	admin.Put("/products/{id}", "products.update", productController.Update)
	admin.Delete("/products/{id}", "products.destroy", productController.Destroy)
	admin.Post("/products/{id}/image", "products.image", productController.UploadImage)

	admin.Put("/orders/{id}/status", "orders.status", orderController.UpdateStatus)
	admin.Get("/auth/users", "auth.users", authController.Users)
}
