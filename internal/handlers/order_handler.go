package handlers

import (
	"bytes"
	"fmt"
	"time"

	"storefront/internal/csvio"
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	log      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the customer order routes behind authRequired and
// the order administration routes on admin.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler, admin fiber.Router) {
	orderRoutes := router.Group("/orders", authRequired)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)

	adminOrders := admin.Group("/orders")
	adminOrders.Get("/", h.HandleListSummaries)
	adminOrders.Get("/export", h.HandleExportOrders)
	adminOrders.Patch("/:id/status", h.HandleUpdateOrderStatus)
	adminOrders.Post("/:id/close", h.HandleCloseOrder)
	adminOrders.Delete("/:id", h.HandleDeleteOrder)
}

// HandleGetMyOrders lists the orders of the signed-in user.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersForUser(middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order of the signed-in user.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	order, err := h.service.GetOrderForUser(middleware.UserID(c), middleware.Role(c), id)
	if err != nil {
		return fail(c, h.log, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleListSummaries lists every order for the admin panel, newest first.
func (h *OrderHandler) HandleListSummaries(c *fiber.Ctx) error {
	summaries, err := h.service.ListSummaries()
	if err != nil {
		return fail(c, h.log, "Could not retrieve orders", err)
	}
	return c.JSON(summaries)
}

// HandleExportOrders downloads the order summaries as a semicolon separated file.
func (h *OrderHandler) HandleExportOrders(c *fiber.Ctx) error {
	summaries, err := h.service.ListSummaries()
	if err != nil {
		return fail(c, h.log, "Could not export orders", err)
	}

	var buf bytes.Buffer
	if err := csvio.WriteOrders(&buf, summaries); err != nil {
		return fail(c, h.log, "Could not export orders", err)
	}
	return sendCSV(c, fmt.Sprintf("Orders_Export_%s.csv", time.Now().Format("20060102_1504")), buf.Bytes())
}

// StatusRequest represents the request body for a status change.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	var req StatusRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	if err := h.service.UpdateOrderStatus(id, req.Status); err != nil {
		return fail(c, h.log, "Could not update order status", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %d status updated successfully to %s", id, req.Status),
	})
}

// HandleCloseOrder marks an order as closed.
func (h *OrderHandler) HandleCloseOrder(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.service.CloseOrder(id); err != nil {
		return fail(c, h.log, "Could not close order", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %d closed", id),
	})
}

// HandleDeleteOrder removes an order and its items.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c, "id")
	}
	if err := h.service.DeleteOrder(id); err != nil {
		return fail(c, h.log, "Could not delete order", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func sendCSV(c *fiber.Ctx, filename string, body []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(body)
}
