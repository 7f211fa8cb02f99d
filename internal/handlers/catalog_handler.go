package handlers

import (
	"fmt"

	"edhaus/internal/models"
	"edhaus/internal/services"
	"edhaus/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogHandler serves products and categories. Reads are public, writes are admin only.
type CatalogHandler struct {
	products   *services.ProductService
	categories *services.CategoryService
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewCatalogHandler(products *services.ProductService, categories *services.CategoryService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		products:   products,
		categories: categories,
		validate:   validation.New(),
		logger:     logger,
	}
}

// RegisterRoutes registers the public catalog routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.HandleListProducts)
	router.Get("/products/:id", h.HandleGetProduct)
	router.Get("/categories", h.HandleCategoryTree)
	router.Get("/categories/:id", h.HandleGetCategory)
}

// RegisterAdminRoutes registers the catalog management routes.
func (h *CatalogHandler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Post("/products", h.HandleCreateProduct)
	admin.Put("/products/:id", h.HandleUpdateProduct)
	admin.Put("/products/:id/stock", h.HandleSetStock)
	admin.Delete("/products/:id", h.HandleDeleteProduct)

	admin.Post("/categories", h.HandleCreateCategory)
	admin.Put("/categories/:id", h.HandleUpdateCategory)
	admin.Delete("/categories/:id", h.HandleDeleteCategory)
}

// HandleListProducts lists products with search, filter, sort and paging from the query string.
func (h *CatalogHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := models.ProductFilter{
		Search:     c.Query("search"),
		CategoryID: c.Query("category_id"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		Page:       c.QueryInt("page", 1),
		PerPage:    c.QueryInt("per_page", 20),
	}
	var err error
	if filter.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return respondError(c, h.logger, err)
	}
	if filter.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return respondError(c, h.logger, err)
	}

	page, err := h.products.ListProducts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(page)
}

func (h *CatalogHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.products.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product, including its initial stock.
func (h *CatalogHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return invalidBody(c, err)
	}
	product.ID = ""
	if err := h.validate.Struct(product); err != nil {
		return validationFailed(c, err)
	}
	if err := h.products.CreateProduct(c.UserContext(), &product); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies the allow-listed fields. Stock in the body is ignored.
func (h *CatalogHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var update models.ProductUpdate
	if err := c.BodyParser(&update); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(update); err != nil {
		return validationFailed(c, err)
	}
	product, err := h.products.UpdateProduct(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(product)
}

type stockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

func (h *CatalogHandler) HandleSetStock(c *fiber.Ctx) error {
	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	product, err := h.products.SetStock(c.UserContext(), c.Params("id"), *req.Stock)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(product)
}

func (h *CatalogHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.products.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product " + id + " deleted successfully",
	})
}

// HandleCategoryTree returns the root categories with their subcategories.
func (h *CatalogHandler) HandleCategoryTree(c *fiber.Ctx) error {
	tree, err := h.categories.Tree(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(tree)
}

func (h *CatalogHandler) HandleGetCategory(c *fiber.Ctx) error {
	category, err := h.categories.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(category)
}

func (h *CatalogHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return invalidBody(c, err)
	}
	category.ID = ""
	if err := h.validate.Struct(category); err != nil {
		return validationFailed(c, err)
	}
	if err := h.categories.Create(c.UserContext(), &category); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *CatalogHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var update models.CategoryUpdate
	if err := c.BodyParser(&update); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(update); err != nil {
		return validationFailed(c, err)
	}
	category, err := h.categories.Update(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(category)
}

func (h *CatalogHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.categories.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Category " + id + " deleted successfully",
	})
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, raw, services.ErrValidation)
	}
	return &d, nil
}
