package repositories

import (
	"errors"

	"storefront/internal/models"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("record not found")

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	UpdatePasswordHash(id uint, hash string) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByIDs(ids []uint) (map[uint]models.User, error)
	EmailTakenByOther(email string, userID uint) (bool, error)
}

// ProductFilter selects the ordering or narrowing applied to a catalog search.
type ProductFilter string

const (
	FilterNone     ProductFilter = ""
	FilterName     ProductFilter = "name"
	FilterPrice    ProductFilter = "price"
	FilterTopRated ProductFilter = "top_rated"
)

// ParseProductFilter maps a query value onto a ProductFilter.
func ParseProductFilter(s string) (ProductFilter, bool) {
	switch f := ProductFilter(s); f {
	case FilterNone, FilterName, FilterPrice, FilterTopRated:
		return f, true
	}
	return FilterNone, false
}

// ProductQuery narrows a catalog search. Only active products are ever returned.
type ProductQuery struct {
	Text       string
	Filter     ProductFilter
	CategoryID *uint
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	GetByIDs(ids []uint) (map[uint]models.Product, error)
	Search(q ProductQuery) ([]models.Product, error)
	Create(product *models.Product) error
	CreateBatch(products []models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetActive() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	Create(category *models.Category) error
}

// OrderTx is the set of operations available inside one checkout unit of work.
// Nothing staged through it is visible to other readers until the enclosing
// WithinTx returns nil.
type OrderTx interface {
	FindActiveProductByName(name string) (*models.Product, error)
	CreateOrder(order *models.Order) error
	CreateItem(item *models.OrderItem) error
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id uint) (*models.Order, error)
	GetByUser(userID uint) ([]models.Order, error)
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
	WithinTx(fn func(tx OrderTx) error) error
}
