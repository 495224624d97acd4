package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// GetAll returns all products ordered by id.
func (r *MemoryProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool { return productList[i].ID < productList[j].ID })
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
	}
	return &product, nil
}

// GetByIDs returns the known products keyed by id.
func (r *MemoryProductRepository) GetByIDs(ids []uint) (map[uint]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make(map[uint]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

// Search applies q the same way the GORM repository does.
func (r *MemoryProductRepository) Search(q ProductQuery) ([]models.Product, error) {
	all, _ := r.GetAll()

	var matched []models.Product
	for _, p := range all {
		if !p.IsActive {
			continue
		}
		if q.Text != "" && !containsFold(p.Name, q.Text) && !containsFold(p.Description, q.Text) {
			continue
		}
		if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
			continue
		}
		if q.Filter == FilterTopRated && (!p.Rating.Valid || p.Rating.Decimal.LessThan(models.TopRatedThreshold)) {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if q.Filter == FilterPrice {
			return matched[i].Price.LessThan(matched[j].Price)
		}
		return matched[i].Name < matched[j].Name
	})
	return matched, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insert(product)
	return nil
}

// CreateBatch adds all products.
func (r *MemoryProductRepository) CreateBatch(products []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range products {
		r.insert(&products[i])
	}
	return nil
}

func (r *MemoryProductRepository) insert(product *models.Product) {
	if product.ID == 0 {
		product.ID = r.nextID
	}
	if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", product.ID, ErrNotFound)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// findActiveByName returns the lowest-id active product with the exact name.
func (r *MemoryProductRepository) findActiveByName(name string) (*models.Product, error) {
	all, _ := r.GetAll()
	for _, p := range all {
		if p.IsActive && p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("active product named %q: %w", name, ErrNotFound)
}
