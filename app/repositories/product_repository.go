package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/pkg/orm"
)

// ProductFilter narrows a catalogue listing. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Search   string
	MinPrice int64
	MaxPrice int64
	Featured bool
	Sort     string
	Page     int
	Limit    int
}

// sortOrders maps the accepted ?sort= values onto ORDER BY clauses.
// Anything else falls back to newest first.
var sortOrders = map[string]string{
	"newest":     "id desc",
	"name":       "name asc",
	"price_asc":  "price asc",
	"price_desc": "price desc",
}

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) q() *orm.Query { return orm.New(r.db) }

// List returns one page of products matching the filter.
func (r *ProductRepository) List(f ProductFilter) ([]models.Product, orm.Pagination, error) {
	q := r.q().Model(&models.Product{})

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.MinPrice > 0 {
		q = q.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price <= ?", f.MaxPrice)
	}
	if f.Featured {
		q = q.Where("featured = ?", true)
	}

	order, ok := sortOrders[f.Sort]
	if !ok {
		order = sortOrders["newest"]
	}

	var products []models.Product
	pagination, err := q.Order(order).GetWithPagination(&products, f.Page, f.Limit)
	return products, pagination, err
}

// FindByID looks up a live product by primary key.
func (r *ProductRepository) FindByID(id uint) (models.Product, error) {
	var p models.Product
	err := r.q().Model(&models.Product{}).Where("id = ?", id).First(&p)
	return p, err
}

// FindByIDAny looks up a product including soft-deleted ones, so order
// history keeps resolving after a catalogue removal.
func (r *ProductRepository) FindByIDAny(id uint) (models.Product, error) {
	var p models.Product
	err := r.q().Unscoped().Model(&models.Product{}).Where("id = ?", id).First(&p)
	return p, err
}

// Create persists a new product.
func (r *ProductRepository) Create(p *models.Product) error {
	return r.q().Create(p)
}

// Update persists changes to an existing product.
func (r *ProductRepository) Update(p *models.Product) error {
	return r.q().Save(p)
}

// Delete soft-deletes a product. Existing order lines keep their reference.
func (r *ProductRepository) Delete(id uint) error {
	return r.q().Where("id = ?", id).Delete(&models.Product{})
}

// Featured returns the featured products, cached briefly since the
// storefront home page hits this on every load.
func (r *ProductRepository) Featured() ([]models.Product, error) {
	var products []models.Product
	err := r.q().Model(&models.Product{}).
		Where("featured = ?", true).
		Order("id desc").
		Cache("products:featured", 5*time.Minute, &products)
	return products, err
}

// Categories returns the distinct category names in the catalogue.
func (r *ProductRepository) Categories() ([]string, error) {
	var categories []string
	err := r.q().Model(&models.Product{}).
		Where("category <> ''").
		Select("DISTINCT category").
		Order("category asc").
		Pluck("category", &categories)
	return categories, err
}

// DecrementStock atomically reserves qty units of a product inside tx.
// The guard makes oversells impossible: when stock is short no row matches
// and the returned count is zero.
func (r *ProductRepository) DecrementStock(tx *orm.Query, productID uint, qty int) (bool, error) {
	n, err := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]interface{}{"stock": gorm.Expr("stock - ?", qty)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// StockTx reads a product's current stock inside tx, after a decrement has
// already lost. The caller's earlier snapshot may be stale by then.
func (r *ProductRepository) StockTx(tx *orm.Query, productID uint) (int, error) {
	var p models.Product
	err := tx.Model(&models.Product{}).Where("id = ?", productID).First(&p)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}
