package handlers

import (
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartSessionHeader carries the cart session id in both directions.
const CartSessionHeader = "X-Cart-Session"

// CartHandler serves the per-session shopping cart and checkout.
type CartHandler struct {
	sessions *cart.Sessions
	products *services.ProductService
	orders   *services.OrderService
	validate *validator.Validate
	log      *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(sessions *cart.Sessions, products *services.ProductService, orders *services.OrderService, log *zap.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		products: products,
		orders:   orders,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the cart routes. optionalAuth runs before checkout.
func (h *CartHandler) RegisterRoutes(router fiber.Router, optionalAuth fiber.Handler) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:id", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
	cartRoutes.Post("/checkout", optionalAuth, h.HandleCheckout)
}

// CartView is the JSON form of a cart.
type CartView struct {
	SessionID string          `json:"session_id"`
	Items     []cart.Line     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func view(c *cart.Cart) CartView {
	return CartView{
		Items:     c.Items(),
		Total:     c.TotalPrice(),
		ItemCount: c.ItemCount(),
	}
}

// withCart runs fn on the request's cart session and echoes the session id.
// Only create opens a new session. Otherwise a missing session behaves as an
// empty cart that is not kept.
func (h *CartHandler) withCart(c *fiber.Ctx, create bool, fn func(ct *cart.Cart) error) error {
	var snapshot CartView
	run := func(ct *cart.Cart) error {
		if err := fn(ct); err != nil {
			return err
		}
		snapshot = view(ct)
		return nil
	}

	id := c.Get(CartSessionHeader)
	var err error
	if create {
		id, err = h.sessions.With(id, run)
	} else {
		var ok bool
		if ok, err = h.sessions.WithExisting(id, run); !ok {
			id = ""
			err = run(cart.New())
		}
	}
	if id != "" {
		c.Set(CartSessionHeader, id)
	}
	if err != nil {
		return err
	}
	snapshot.SessionID = id
	return c.JSON(snapshot)
}

func lineNotFound(id uint) error {
	return fmt.Errorf("cart line %d: %w", id, repositories.ErrNotFound)
}

// HandleGetCart returns the current cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	return h.withCart(c, false, func(*cart.Cart) error { return nil })
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	return h.withCart(c, false, func(ct *cart.Cart) error {
		ct.Clear()
		return nil
	})
}

// AddItemRequest puts a catalog product into the cart.
type AddItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"omitempty,gte=1,lte=1000"`
}

// HandleAddItem adds a product to the cart, merging with an existing line of
// the same name and price.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.products.GetProductByID(req.ProductID)
	if err == nil && !product.IsActive {
		err = fmt.Errorf("active product with ID %d: %w", req.ProductID, repositories.ErrNotFound)
	}
	if err != nil {
		return fail(c, h.log, "Could not add product to cart", err)
	}

	err = h.withCart(c, true, func(ct *cart.Cart) error {
		ct.Add(product.Name, product.Price, req.Quantity, product.Description)
		return nil
	})
	if err != nil {
		return fail(c, h.log, "Could not add product to cart", err)
	}
	return nil
}

// QuantityRequest sets the quantity of a cart line. Zero removes the line.
type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=1000"`
}

// HandleSetQuantity overwrites the quantity of a cart line.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var req QuantityRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	err := h.withCart(c, false, func(ct *cart.Cart) error {
		if !ct.SetQuantity(int(id), req.Quantity) {
			return lineNotFound(id)
		}
		return nil
	})
	if err != nil {
		return fail(c, h.log, "Could not update cart", err)
	}
	return nil
}

// HandleRemoveItem removes a cart line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}

	err := h.withCart(c, false, func(ct *cart.Cart) error {
		if !ct.Remove(int(id)) {
			return lineNotFound(id)
		}
		return nil
	})
	if err != nil {
		return fail(c, h.log, "Could not update cart", err)
	}
	return nil
}

// CheckoutRequest carries the optional shipping address.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"omitempty,max=255"`
}

// HandleCheckout places an order from the cart. The cart is cleared only
// when the order was committed.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, h.validate, &req); !ok {
			return err
		}
	}

	var order *models.Order
	id := c.Get(CartSessionHeader)
	found, err := h.sessions.WithExisting(id, func(ct *cart.Cart) error {
		placed, err := h.orders.PlaceOrder(middleware.UserID(c), ct.Items(), req.ShippingAddress)
		if err != nil {
			return err
		}
		ct.Clear()
		order = placed
		return nil
	})
	if found {
		c.Set(CartSessionHeader, id)
	} else {
		_, err = h.orders.PlaceOrder(middleware.UserID(c), nil, req.ShippingAddress)
	}
	if err != nil {
		return fail(c, h.log, "Checkout failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("Order %d placed", order.ID),
		"order":   order,
	})
}
