package handlers

import (
	"edhaus/internal/middleware"
	"edhaus/internal/services"
	"edhaus/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HeaderIdempotencyKey makes a retried checkout return the order of the first attempt.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	checkout *services.CheckoutService
	orders   *services.OrderService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(checkout *services.CheckoutService, orders *services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		orders:   orders,
		validate: validation.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the customer order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancel)
}

// RegisterAdminRoutes registers the order management routes.
func (h *OrderHandler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/orders", h.HandleListAll)
	admin.Put("/orders/:id/status", h.HandleUpdateOrderStatus)
}

func actorOf(c *fiber.Ctx) services.Actor {
	identity := middleware.CurrentIdentity(c)
	return services.Actor{UserID: identity.UserID, Admin: identity.IsAdmin()}
}

// HandleGetOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListForUser(c.UserContext(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order of the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.orders.GetForUser(c.UserContext(), c.Params("id"), actorOf(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(order)
}

// HandleCheckout turns the caller's cart into a pending order.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	req.IdempotencyKey = c.Get(HeaderIdempotencyKey)

	order, err := h.checkout.Checkout(c.UserContext(), middleware.CurrentIdentity(c).UserID, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleCancel cancels one of the caller's orders and restocks its items.
func (h *OrderHandler) HandleCancel(c *fiber.Ctx) error {
	order, err := h.orders.Cancel(c.UserContext(), c.Params("id"), actorOf(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(order)
}

// HandleListAll lists every order, optionally filtered by ?status=.
func (h *OrderHandler) HandleListAll(c *fiber.Ctx) error {
	orders, err := h.orders.ListAll(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(orders)
}

type statusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number" validate:"omitempty,max=100"`
}

// HandleUpdateOrderStatus moves an order along the status graph.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	order, err := h.orders.SetStatus(c.UserContext(), c.Params("id"), req.Status, req.TrackingNumber)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(order)
}
