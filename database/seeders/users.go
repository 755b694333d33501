package seeders

import (
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/pkg/auth"
	"github.com/modernhardware/api/config"
)

func init() {
	Register("users", SeedUsers)
}

// SeedUsers creates the initial admin plus a demo customer. Idempotent:
// existing emails are left alone.
func SeedUsers(db *gorm.DB) error {
	users := []struct {
		name     string
		email    string
		password string
		phone    string
		address  string
		role     string
	}{
		{"Admin User", "admin@modernhardware.com", config.Get("SEED_ADMIN_PASSWORD", "admin123"), "254700000000", "Modern Hardware HQ, Industrial Area, Nairobi", models.RoleAdmin},
		{"John Doe", "john@example.com", "password123", "254712345678", "Moi Avenue, Nairobi", models.RoleCustomer},
	}

	for _, u := range users {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", u.email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hashed, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		user := models.User{
			Name:     u.name,
			Email:    u.email,
			Password: hashed,
			Phone:    u.phone,
			Address:  u.address,
			Role:     u.role,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	}
	return nil
}
