package controllers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/repositories"
	"github.com/modernhardware/api/app/services"
	"github.com/modernhardware/api/pkg/bind"
	"github.com/modernhardware/api/pkg/response"
)

// maxImageBytes caps product image uploads at 5 MB.
const maxImageBytes = 5 << 20

// ProductController serves the public catalogue and admin product CRUD.
type ProductController struct {
	service *services.ProductService
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{service: services.NewProductService(db)}
}

// Index lists the catalogue with optional filters:
// ?category= ?search= ?min_price= ?max_price= ?featured=true
// ?sort=newest|name|price_asc|price_desc ?page= ?limit=
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repositories.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		MinPrice: queryInt64(r, "min_price", 0),
		MaxPrice: queryInt64(r, "max_price", 0),
		Featured: q.Get("featured") == "true",
		Sort:     q.Get("sort"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 12),
	}

	products, pagination, err := c.service.List(filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, map[string]interface{}{"products": products, "pagination": pagination})
}

// Show returns one product.
func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := paramID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := c.service.Get(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, product)
}

// Featured returns the home-page featured products.
func (c *ProductController) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := c.service.Featured()
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, products)
}

// Categories returns the distinct catalogue categories.
func (c *ProductController) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.service.Categories()
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, categories)
}

type productRequest struct {
	Name        string `json:"name"        validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"nullable,max=5000"`
	Price       int64  `json:"price"       validate:"required,gte=1"`
	Category    string `json:"category"    validate:"nullable,max=100"`
	Stock       int    `json:"stock"       validate:"gte=0"`
	ImageURL    string `json:"image_url"   validate:"nullable,url"`
	Featured    bool   `json:"featured"`
}

func (body *productRequest) toInput() services.ProductInput {
	return services.ProductInput{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Category:    body.Category,
		Stock:       body.Stock,
		ImageURL:    body.ImageURL,
		Featured:    body.Featured,
	}
}

// Store creates a product.
func (c *ProductController) Store(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.service.Create(body.toInput())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, product)
}

// Update replaces a product's attributes.
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := paramID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var body productRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.service.Update(id, body.toInput())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, product)
}

// Destroy removes a product from the catalogue.
func (c *ProductController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, err := paramID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := c.service.Delete(id); err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, nil)
}

// UploadImage accepts a multipart "image" file and stores it on the
// configured disk.
func (c *ProductController) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := paramID(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "Image exceeds the 5 MB limit")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		response.Error(w, http.StatusBadRequest, "Unsupported image type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		fail(w, r, err)
		return
	}

	product, err := c.service.AttachImage(id, header.Filename, data)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, product)
}
