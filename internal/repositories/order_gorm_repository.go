package repositories

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// GetAll retrieves every order with its items, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves an order and its items.
func (r *GORMOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves the orders of one user, newest first.
func (r *GORMOrderRepository) GetByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// UpdateStatus updates the status of an order.
func (r *GORMOrderRepository) UpdateStatus(id uint, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes an order and its items in one transaction.
func (r *GORMOrderRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete items of order %d: %w", id, err)
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete order %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// WithinTx runs fn inside one database transaction. The transaction commits
// only when fn returns nil; any error or panic rolls everything back.
func (r *GORMOrderRepository) WithinTx(fn func(tx OrderTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormOrderTx{db: tx})
	})
}

type gormOrderTx struct {
	db *gorm.DB
}

func (t *gormOrderTx) FindActiveProductByName(name string) (*models.Product, error) {
	var product models.Product
	err := t.db.Where("name = ? AND is_active = ?", name, true).Order("id").First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active product named %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve product %q: %w", name, err)
	}
	return &product, nil
}

func (t *gormOrderTx) CreateOrder(order *models.Order) error {
	if err := t.db.Omit("Items").Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (t *gormOrderTx) CreateItem(item *models.OrderItem) error {
	if err := t.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}
