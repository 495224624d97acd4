package repositories

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products, active or not, ordered by id.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// GetByIDs loads products keyed by id, including soft-deleted ones so that
// historical orders can still name them.
func (r *GORMProductRepository) GetByIDs(ids []uint) (map[uint]models.Product, error) {
	products := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}
	var rows []models.Product
	if err := r.db.Unscoped().Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	for _, p := range rows {
		products[p.ID] = p
	}
	return products, nil
}

// Search returns the active products matching q.
func (r *GORMProductRepository) Search(q ProductQuery) ([]models.Product, error) {
	tx := r.db.Model(&models.Product{}).Where("is_active = ?", true)

	if q.Text != "" {
		like := "%" + likeEscaper.Replace(q.Text) + "%"
		tx = tx.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\'`, like, like)
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}

	switch q.Filter {
	case FilterPrice:
		tx = tx.Order("price").Order("id")
	case FilterTopRated:
		tx = tx.Where("rating IS NOT NULL AND rating >= ?", models.TopRatedThreshold.InexactFloat64()).
			Order("name").Order("id")
	default:
		tx = tx.Order("name").Order("id")
	}

	var products []models.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// CreateBatch inserts all products in one transaction.
func (r *GORMProductRepository) CreateBatch(products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&products).Error
	})
	if err != nil {
		return fmt.Errorf("failed to import %d products: %w", len(products), err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	if _, err := r.GetByID(product.ID); err != nil {
		return err
	}
	// Select("*") writes zero values too, so a product can be deactivated.
	res := r.db.Model(product).Select("*").Omit("created_at", "deleted_at").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	return nil
}

// Delete soft-deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
	}
	return nil
}
