package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
// WithinTx stages rows and publishes them only when the callback succeeds.
type MemoryOrderRepository struct {
	products *MemoryProductRepository
	orders   map[uint]models.Order
	nextID   uint
	nextItem uint
	commits  int
	mu       sync.RWMutex
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
// Product names are resolved against products.
func NewMemoryOrderRepository(products *MemoryProductRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		products: products,
		orders:   make(map[uint]models.Order),
		nextID:   1,
		nextItem: 1,
	}
}

// Commits returns how many write units of work have been applied.
func (r *MemoryOrderRepository) Commits() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commits
}

// GetAll returns all orders, newest first.
func (r *MemoryOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sortNewestFirst(orderList)
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	return &order, nil
}

// GetByUser returns the orders of one user, newest first.
func (r *MemoryOrderRepository) GetByUser(userID uint) ([]models.Order, error) {
	all, _ := r.GetAll()
	var mine []models.Order
	for _, o := range all {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	return mine, nil
}

// UpdateStatus updates the status of an order.
func (r *MemoryOrderRepository) UpdateStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	r.commits++
	return nil
}

// Delete removes an order together with its items.
func (r *MemoryOrderRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	delete(r.orders, id)
	r.commits++
	return nil
}

// WithinTx runs fn against a staging area and applies the staged rows only
// when fn returns nil.
func (r *MemoryOrderRepository) WithinTx(fn func(tx OrderTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryOrderTx{repo: r, nextID: r.nextID, nextItem: r.nextItem}
	if err := fn(tx); err != nil {
		return err
	}

	for _, o := range tx.orders {
		for _, it := range tx.items {
			if it.OrderID == o.ID {
				o.Items = append(o.Items, it)
			}
		}
		r.orders[o.ID] = o
	}
	r.nextID = tx.nextID
	r.nextItem = tx.nextItem
	r.commits++
	return nil
}

type memoryOrderTx struct {
	repo     *MemoryOrderRepository
	orders   []models.Order
	items    []models.OrderItem
	nextID   uint
	nextItem uint
}

func (t *memoryOrderTx) FindActiveProductByName(name string) (*models.Product, error) {
	return t.repo.products.findActiveByName(name)
}

func (t *memoryOrderTx) CreateOrder(order *models.Order) error {
	order.ID = t.nextID
	t.nextID++
	staged := *order
	staged.Items = nil
	t.orders = append(t.orders, staged)
	return nil
}

func (t *memoryOrderTx) CreateItem(item *models.OrderItem) error {
	known := false
	for _, o := range t.orders {
		if o.ID == item.OrderID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("order item references unknown order %d", item.OrderID)
	}
	item.ID = t.nextItem
	t.nextItem++
	t.items = append(t.items, *item)
	return nil
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
