package services

import (
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

var maxRating = decimal.NewFromInt(5)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products, including inactive ones.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// Search lists the active products matching q.
func (s *ProductService) Search(q repositories.ProductQuery) ([]models.Product, error) {
	q.Text = strings.TrimSpace(q.Text)
	return s.repo.Search(q)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := ValidateProduct(product); err != nil {
		return err
	}
	return s.repo.Create(product)
}

// UpdateProduct validates and saves an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := ValidateProduct(product); err != nil {
		return err
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id uint) error {
	return s.repo.Delete(id)
}

// ImportProducts stores a batch of products in one unit of work.
func (s *ProductService) ImportProducts(products []models.Product) (int, error) {
	for i := range products {
		if err := ValidateProduct(&products[i]); err != nil {
			return 0, err
		}
	}
	if err := s.repo.CreateBatch(products); err != nil {
		return 0, err
	}
	return len(products), nil
}

// ValidateProduct checks the fields the catalog relies on.
func ValidateProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return validationError("product name is required")
	}
	if !p.Price.IsPositive() {
		return validationError("price of %q must be greater than zero", p.Name)
	}
	if p.StockQuantity < 0 {
		return validationError("stock of %q must not be negative", p.Name)
	}
	if p.Rating.Valid && (p.Rating.Decimal.IsNegative() || p.Rating.Decimal.GreaterThan(maxRating)) {
		return validationError("rating of %q must be between 0 and 5", p.Name)
	}
	return nil
}
