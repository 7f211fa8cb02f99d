package handlers

import (
	"edhaus/internal/middleware"
	"edhaus/internal/services"
	"edhaus/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler serves the authenticated user's cart.
type CartHandler struct {
	carts    *services.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(carts *services.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, validate: validation.New(), logger: logger}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleView)
	cartRoutes.Post("/", h.HandleAdd)
	cartRoutes.Put("/:product_id", h.HandleUpdate)
	cartRoutes.Delete("/:product_id", h.HandleRemove)
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateCartRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func (h *CartHandler) HandleView(c *fiber.Ctx) error {
	cart, err := h.carts.View(c.UserContext(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(cart)
}

// HandleAdd adds a product to the cart. Quantity defaults to 1.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	cart, err := h.carts.Add(c.UserContext(), middleware.CurrentIdentity(c).UserID, req.ProductID, quantity)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(cart)
}

// HandleUpdate sets the quantity of a cart line; 0 removes it.
func (h *CartHandler) HandleUpdate(c *fiber.Ctx) error {
	var req updateCartRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	cart, err := h.carts.Update(c.UserContext(), middleware.CurrentIdentity(c).UserID, c.Params("product_id"), *req.Quantity)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	cart, err := h.carts.Remove(c.UserContext(), middleware.CurrentIdentity(c).UserID, c.Params("product_id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(cart)
}
