package models

import "gorm.io/gorm"

// Product is one catalogue entry. Prices are whole Kenyan shillings.
// Deleting a product soft-deletes it so past order lines keep resolving.
type Product struct {
	gorm.Model
	Name        string `gorm:"size:255;not null;index" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Price       int64  `gorm:"not null;default:0" json:"price"`
	Category    string `gorm:"size:100;index" json:"category"`
	Stock       int    `gorm:"not null;default:0" json:"stock"`
	ImageURL    string `gorm:"size:512" json:"image_url"`
	Featured    bool   `gorm:"not null;default:false;index" json:"featured"`
}

// InStock reports whether at least qty units are available.
func (p *Product) InStock(qty int) bool { return p.Stock >= qty }
