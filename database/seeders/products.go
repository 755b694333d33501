package seeders

import (
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
)

func init() {
	Register("products", SeedProducts)
}

// SeedProducts loads the starter hardware catalogue. Skips entirely when
// products already exist, so re-running seed is safe.
func SeedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []models.Product{
		// Building Materials
		{Name: "Bamburi Cement - 50kg Bag", Description: "Premium quality cement suitable for all construction needs. Perfect for foundations, walls, and flooring.", Price: 650, Category: "Building Materials", Stock: 500, Featured: true},
		{Name: "Mombasa Cement - 50kg Bag", Description: "High-strength cement ideal for structural work and concrete preparations.", Price: 620, Category: "Building Materials", Stock: 450},
		{Name: "River Sand - 1 Ton", Description: "Clean river sand suitable for plastering and concrete work.", Price: 3500, Category: "Building Materials", Stock: 100},
		{Name: "Machine Cut Bricks - Red", Description: "Standard machine cut bricks for wall construction. Quality tested.", Price: 18, Category: "Building Materials", Stock: 10000},
		{Name: "Timber - Pine 2x6x12", Description: "Pressure treated pine timber suitable for framing and structural work.", Price: 1200, Category: "Building Materials", Stock: 200},

		// Power Tools
		{Name: "Bosch Cordless Drill 18V", Description: "Professional cordless drill with 2 batteries, charger, and carrying case. Variable speed control.", Price: 8500, Category: "Power Tools", Stock: 50, Featured: true},
		{Name: "Makita Circular Saw 7.25", Description: "Powerful 15AMP circular saw with laser guide. Perfect for precision cuts.", Price: 12500, Category: "Power Tools", Stock: 30},
		{Name: "DeWalt Angle Grinder 4.5", Description: "Heavy duty angle grinder for cutting and grinding metal and masonry.", Price: 6800, Category: "Power Tools", Stock: 40},
		{Name: "Stanley Jigsaw 500W", Description: "Variable speed jigsaw with orbital action. Ideal for curved cuts.", Price: 4500, Category: "Power Tools", Stock: 35},

		// Hand Tools
		{Name: "Stanley Claw Hammer 16oz", Description: "Professional claw hammer with fiberglass handle. Comfortable grip.", Price: 850, Category: "Hand Tools", Stock: 200, Featured: true},
		{Name: "Set of Screwdrivers - 32 Piece", Description: "Complete screwdriver set with Phillips, flathead, and Torx drivers. Magnetic tips.", Price: 2200, Category: "Hand Tools", Stock: 150},
		{Name: "King Tony Wrench Set - 12 Piece", Description: "Combination wrench set (8-19mm). Chrome vanadium steel.", Price: 3500, Category: "Hand Tools", Stock: 100},
		{Name: "Tajima Tape Measure 7.5m", Description: "Professional tape measure with magnetic hook and blade brake.", Price: 1200, Category: "Hand Tools", Stock: 180},
		{Name: "Bosch Spirit Level 60cm", Description: "Aluminum spirit level with 3 vials. Accuracy 0.5mm/m.", Price: 1800, Category: "Hand Tools", Stock: 120},

		// Electrical
		{Name: "Copper Wire - 2.5mm Roll", Description: "Pure copper electrical wire, 100m roll. Kenya Bureau of Standards approved.", Price: 4500, Category: "Electrical", Stock: 300},
		{Name: "Copper Wire - 1.5mm Roll", Description: "Pure copper electrical wire, 100m roll. For lighting circuits.", Price: 3200, Category: "Electrical", Stock: 350},
		{Name: "Extension Socket - 6 Way", Description: "6-outlet extension with 2m cord and individual switches. 13A fuse.", Price: 850, Category: "Electrical", Stock: 250},
		{Name: "LED Bulb - 9W", Description: "Energy saving LED bulb. E27 base. 800 lumens. 6500K daylight.", Price: 350, Category: "Electrical", Stock: 1000},
		{Name: "Circuit Breaker - 32A", Description: "Mini circuit breaker MCB 32A single pole. For overload protection.", Price: 450, Category: "Electrical", Stock: 400},

		// Plumbing
		{Name: "PVC Pipe - 1 inch (3m)", Description: "Standard PVC pipe for water supply. Pressure rated.", Price: 380, Category: "Plumbing", Stock: 500},
		{Name: "PVC Pipe - 2 inch (3m)", Description: "Standard PVC pipe for drainage. Heavy duty.", Price: 650, Category: "Plumbing", Stock: 400},
		{Name: "Galvanized Pipe - 1 inch (3m)", Description: "Galvanized steel pipe for water distribution. Corrosion resistant.", Price: 1200, Category: "Plumbing", Stock: 200},
		{Name: "Water Tank - 1000L", Description: "High density polyethylene water tank. Food grade. With lid.", Price: 8500, Category: "Plumbing", Stock: 50, Featured: true},
		{Name: "Brass Ball Valve - 1 inch", Description: "Full bore brass ball valve. Threaded ends. For water control.", Price: 550, Category: "Plumbing", Stock: 300},

		// Paint
		{Name: "Dulux Exterior Paint - 20L", Description: "Premium quality exterior paint. Weather resistant. Washable.", Price: 4500, Category: "Paint", Stock: 150},
		{Name: "Dulux Interior Paint - 20L", Description: "Premium quality interior paint. Low odor. Easy clean.", Price: 3800, Category: "Paint", Stock: 180},
		{Name: "Metal Primer - 5L", Description: "Red oxide metal primer. Anti-corrosion protection.", Price: 1200, Category: "Paint", Stock: 100},
		{Name: "Wood Varnish - 5L", Description: "Clear polyurethane varnish for wood. Gloss finish.", Price: 2200, Category: "Paint", Stock: 80},
		{Name: "Paint Brushes Set - 5 Piece", Description: "Assorted paint brushes for walls and wood. Various sizes.", Price: 650, Category: "Paint", Stock: 200},
	}

	return db.Create(&products).Error
}
