package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	summaryMaxLen   = 100
	summaryCutLen   = 97
	unknownClient   = "Unknown"
	productFallback = "Product #%d"
)

// OrderLogger appends a record for each committed order.
type OrderLogger interface {
	Append(order *models.Order, lines []cart.Line) error
}

// EventPublisher sends order events to other services.
type EventPublisher interface {
	PublishOrderEvent(event rabbitmq.OrderEvent) error
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	orderLog    OrderLogger
	publisher   EventPublisher // nil disables events
	log         *zap.Logger
	now         func() time.Time
}

// NewOrderService creates a new OrderService. orderLog and publisher may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	orderLog OrderLogger,
	publisher EventPublisher,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		orderLog:    orderLog,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// SetClock replaces the time source used for order timestamps.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// PlaceOrder turns the cart lines of an authenticated user into an order.
//
// The header and every item are written in one transaction. Lines whose name
// matches no active product are left out of the items, while the header total
// is still the cart total. The order log and the order.placed event are
// best-effort and run only after the commit.
func (s *OrderService) PlaceOrder(userID uint, lines []cart.Line, shippingAddress string) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if userID == 0 {
		return nil, ErrAuthenticationRequired
	}

	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		shippingAddress = models.DefaultShippingAddress
	}

	now := s.now()
	order := &models.Order{
		Number:          uuid.New().String(),
		UserID:          userID,
		ShippingAddress: shippingAddress,
		TotalAmount:     cart.TotalOf(lines),
		Status:          models.OrderStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var (
		items   []models.OrderItem
		skipped []string
	)
	err := s.orderRepo.WithinTx(func(tx repositories.OrderTx) error {
		items, skipped = nil, nil

		if err := tx.CreateOrder(order); err != nil {
			return err
		}
		for _, line := range lines {
			product, err := tx.FindActiveProductByName(line.Name)
			if errors.Is(err, repositories.ErrNotFound) {
				skipped = append(skipped, line.Name)
				continue
			}
			if err != nil {
				return err
			}

			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			}
			if err := tx.CreateItem(&item); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	order.Items = items

	if len(skipped) > 0 {
		s.log.Warn("cart lines without a matching active product were not ordered",
			zap.Uint("order_id", order.ID), zap.Strings("names", skipped))
	}
	s.log.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(items)))

	s.appendLog(order, lines)
	s.publish(rabbitmq.OrderEvent{
		Type:       rabbitmq.RoutingOrderPlaced,
		OrderID:    order.ID,
		Number:     order.Number,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      order.TotalAmount.StringFixed(2),
		ItemCount:  len(items),
		OccurredAt: now,
	})

	return order, nil
}

func (s *OrderService) appendLog(order *models.Order, lines []cart.Line) {
	if s.orderLog == nil {
		return
	}
	if err := s.orderLog.Append(order, lines); err != nil {
		s.log.Warn("order log append failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}
}

func (s *OrderService) publish(event rabbitmq.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("type", event.Type), zap.Uint("order_id", event.OrderID), zap.Error(err))
	}
}

// GetOrdersForUser lists the orders of one user, newest first.
func (s *OrderService) GetOrdersForUser(userID uint) ([]models.Order, error) {
	if userID == 0 {
		return nil, ErrAuthenticationRequired
	}
	return s.orderRepo.GetByUser(userID)
}

// GetOrderForUser returns an order owned by userID. Staff may read any order.
func (s *OrderService) GetOrderForUser(userID uint, role string, orderID uint) (*models.Order, error) {
	if userID == 0 {
		return nil, ErrAuthenticationRequired
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !models.IsStaffRole(role) {
		// Do not reveal that the order exists.
		return nil, fmt.Errorf("order with ID %d: %w", orderID, repositories.ErrNotFound)
	}
	return order, nil
}

// ListSummaries builds the admin view of every order, newest first.
func (s *OrderService) ListSummaries() ([]models.OrderSummary, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}

	var userIDs, productIDs []uint
	for _, o := range orders {
		userIDs = append(userIDs, o.UserID)
		for _, it := range o.Items {
			productIDs = append(productIDs, it.ProductID)
		}
	}
	users, err := s.userRepo.GetByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.GetByIDs(productIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.OrderSummary, 0, len(orders))
	for _, o := range orders {
		client := unknownClient
		if u, ok := users[o.UserID]; ok {
			client = u.DisplayName()
		}

		names := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			name := fmt.Sprintf(productFallback, it.ProductID)
			if p, ok := products[it.ProductID]; ok {
				name = p.Name
			}
			names = append(names, fmt.Sprintf("%s (x%d)", name, it.Quantity))
		}

		status := o.Status
		if status == "" {
			status = models.OrderStatusCreated
		}
		summaries = append(summaries, models.OrderSummary{
			OrderID:     o.ID,
			Number:      o.Number,
			ClientName:  client,
			CreatedAt:   o.CreatedAt,
			TotalAmount: o.TotalAmount,
			Status:      status,
			Products:    truncateSummary(strings.Join(names, ", ")),
		})
	}
	return summaries, nil
}

func truncateSummary(s string) string {
	r := []rune(s)
	if len(r) <= summaryMaxLen {
		return s
	}
	return string(r[:summaryCutLen]) + "..."
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id uint, status string) error {
	if !models.IsValidOrderStatus(status) {
		return validationError("invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %d: %w", id, err)
	}

	s.publish(rabbitmq.OrderEvent{
		Type:       rabbitmq.RoutingOrderStatus,
		OrderID:    id,
		Status:     status,
		OccurredAt: s.now(),
	})
	return nil
}

// CloseOrder marks an order as closed.
func (s *OrderService) CloseOrder(id uint) error {
	return s.UpdateOrderStatus(id, models.OrderStatusClosed)
}

// DeleteOrder removes an order and its items.
func (s *OrderService) DeleteOrder(id uint) error {
	if err := s.orderRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	s.log.Info("order deleted", zap.Uint("order_id", id))
	return nil
}
