package services

import (
	"context"
	"math"

	"edhaus/internal/models"
	"edhaus/internal/repositories"

	"go.uber.org/zap"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	// Keeps (page-1)*per_page within an int32 offset.
	maxPage = math.MaxInt32 / maxPerPage
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
	ledger     repositories.InventoryLedger
	logger     *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository, ledger repositories.InventoryLedger, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		repo:       repo,
		categories: categories,
		ledger:     ledger,
		logger:     logger,
	}
}

// ListProducts returns one page of the catalog. Filtering by a category
// includes its direct subcategories.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > maxPage {
		filter.Page = maxPage
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultPerPage
	}
	if filter.PerPage > maxPerPage {
		filter.PerPage = maxPerPage
	}
	if filter.CategoryID != "" {
		children, err := s.categories.ChildIDs(ctx, filter.CategoryID)
		if err != nil {
			return nil, err
		}
		filter.CategoryIDs = append([]string{filter.CategoryID}, children...)
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Product{}
	}
	return &models.ProductPage{
		Items:   items,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Pages:   int(math.Ceil(float64(total) / float64(filter.PerPage))),
	}, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	s.logger.Info("product created", zap.String("product_id", product.ID), zap.Int("stock", product.Stock))
	return nil
}

// UpdateProduct applies the allow-listed fields. Stock is never touched here.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	if err := s.checkCategory(ctx, update.CategoryID); err != nil {
		return nil, err
	}
	if columns := update.Columns(); len(columns) > 0 {
		if err := s.repo.Update(ctx, id, columns); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

// SetStock is the administrative stock edit.
func (s *ProductService) SetStock(ctx context.Context, id string, stock int) (*models.Product, error) {
	if err := s.ledger.SetStock(ctx, id, stock); err != nil {
		return nil, err
	}
	s.logger.Info("stock set", zap.String("product_id", id), zap.Int("stock", stock))
	return s.repo.GetByID(ctx, id)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	_, err := s.categories.GetByID(ctx, *categoryID)
	return err
}
