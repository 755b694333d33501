package services

import (
	"fmt"
	"path"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/app/repositories"
	"github.com/modernhardware/api/pkg/cache"
	"github.com/modernhardware/api/pkg/orm"
	"github.com/modernhardware/api/pkg/storage"
)

// ProductService covers the public catalogue and the admin product CRUD.
type ProductService struct {
	products *repositories.ProductRepository
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{products: repositories.NewProductRepository(db)}
}

// List returns one page of the catalogue matching the filter.
func (s *ProductService) List(f repositories.ProductFilter) ([]models.Product, orm.Pagination, error) {
	return s.products.List(f)
}

// Get returns one live product.
func (s *ProductService) Get(id uint) (models.Product, error) {
	p, err := s.products.FindByID(id)
	if orm.IsNotFound(err) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

// Featured returns the home-page featured products.
func (s *ProductService) Featured() ([]models.Product, error) {
	return s.products.Featured()
}

// Categories returns the distinct catalogue categories.
func (s *ProductService) Categories() ([]string, error) {
	return s.products.Categories()
}

// ProductInput is the validated payload for Create and Update.
type ProductInput struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Stock       int
	ImageURL    string
	Featured    bool
}

// Create adds a product to the catalogue.
func (s *ProductService) Create(in ProductInput) (models.Product, error) {
	p := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		Featured:    in.Featured,
	}
	if err := s.products.Create(&p); err != nil {
		return models.Product{}, err
	}
	s.invalidate()
	return p, nil
}

// Update replaces a product's attributes.
func (s *ProductService) Update(id uint, in ProductInput) (models.Product, error) {
	p, err := s.products.FindByID(id)
	if err != nil {
		if orm.IsNotFound(err) {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	p.Stock = in.Stock
	p.Featured = in.Featured
	if in.ImageURL != "" {
		p.ImageURL = in.ImageURL
	}

	if err := s.products.Update(&p); err != nil {
		return models.Product{}, err
	}
	s.invalidate()
	return p, nil
}

// Delete removes a product from the catalogue. The row is soft-deleted so
// order history keeps resolving.
func (s *ProductService) Delete(id uint) error {
	if _, err := s.products.FindByID(id); err != nil {
		if orm.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if err := s.products.Delete(id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// AttachImage stores an uploaded product image and records its public URL.
func (s *ProductService) AttachImage(id uint, filename string, data []byte) (models.Product, error) {
	p, err := s.products.FindByID(id)
	if err != nil {
		if orm.IsNotFound(err) {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, err
	}

	key := fmt.Sprintf("products/%d%s", id, path.Ext(filename))
	if err := storage.Put(key, data); err != nil {
		return models.Product{}, err
	}

	p.ImageURL = storage.URL(key)
	if err := s.products.Update(&p); err != nil {
		return models.Product{}, err
	}
	s.invalidate()
	return p, nil
}

// invalidate drops cached listings after any catalogue write.
func (s *ProductService) invalidate() {
	_ = cache.Del("products:featured")
}
