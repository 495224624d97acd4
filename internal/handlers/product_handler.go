package handlers

import (
	"strconv"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service    *services.ProductService
	categories *services.CategoryService
	validate   *validator.Validate
	log        *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, categories *services.CategoryService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:    service,
		categories: categories,
		validate:   validator.New(),
		log:        log,
	}
}

// RegisterRoutes registers the public catalog routes and the staff-only
// mutations behind staff.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, staff ...fiber.Handler) {
	router.Get("/products", h.HandleSearchProducts)
	router.Get("/products/:id", h.HandleGetProductByID)
	router.Get("/categories", h.HandleListCategories)

	router.Post("/products", chain(staff, h.HandleCreateProduct)...)
	router.Put("/products/:id", chain(staff, h.HandleUpdateProduct)...)
	router.Delete("/products/:id", chain(staff, h.HandleDeleteProduct)...)
	router.Post("/categories", chain(staff, h.HandleCreateCategory)...)
}

// HandleSearchProducts lists active products. Query parameters q, filter
// (name, price, top_rated) and category_id narrow the result.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	filter, ok := repositories.ParseProductFilter(c.Query("filter"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unknown filter '" + c.Query("filter") + "'",
		})
	}

	q := repositories.ProductQuery{Text: c.Query("q"), Filter: filter}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid category_id '" + raw + "'",
			})
		}
		categoryID := uint(id)
		q.CategoryID = &categoryID
	}

	products, err := h.service.Search(q)
	if err != nil {
		return fail(c, h.log, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	product, err := h.service.GetProductByID(id)
	if err != nil {
		return fail(c, h.log, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// ProductRequest represents the writable product fields.
type ProductRequest struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Description   string           `json:"description" validate:"omitempty,max=2000"`
	Price         decimal.Decimal  `json:"price"`
	CategoryID    *uint            `json:"category_id"`
	StockQuantity int              `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string           `json:"image_url" validate:"omitempty,max=512"`
	Rating        *decimal.Decimal `json:"rating"`
	IsActive      *bool            `json:"is_active"`
}

func (r ProductRequest) apply(p *models.Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price
	p.CategoryID = r.CategoryID
	p.StockQuantity = r.StockQuantity
	p.ImageURL = r.ImageURL
	p.Rating = decimal.NullDecimal{}
	if r.Rating != nil {
		p.Rating = decimal.NewNullDecimal(*r.Rating)
	}
	p.IsActive = true
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	var product models.Product
	req.apply(&product)
	if err := h.service.CreateProduct(&product); err != nil {
		return fail(c, h.log, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var req ProductRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	product, err := h.service.GetProductByID(id)
	if err != nil {
		return fail(c, h.log, "Could not update product", err)
	}
	req.apply(product)
	if err := h.service.UpdateProduct(product); err != nil {
		return fail(c, h.log, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.service.DeleteProduct(id); err != nil {
		return fail(c, h.log, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListCategories lists active categories.
func (h *ProductHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.ListActive()
	if err != nil {
		return fail(c, h.log, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

// CategoryRequest represents a new category.
type CategoryRequest struct {
	Name             string `json:"name" validate:"required,max=50"`
	Description      string `json:"description" validate:"omitempty,max=255"`
	ParentCategoryID *uint  `json:"parent_category_id"`
}

// HandleCreateCategory creates a category.
func (h *ProductHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	category := models.Category{
		Name:             req.Name,
		Description:      req.Description,
		ParentCategoryID: req.ParentCategoryID,
		IsActive:         true,
	}
	if err := h.categories.Create(&category); err != nil {
		return fail(c, h.log, "Could not create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
