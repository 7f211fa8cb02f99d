package services_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"edhaus/internal/models"
	"edhaus/internal/repositories"
	"edhaus/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type productFixture struct {
	repo       *MockProductRepository
	categories *MockCategoryRepository
	ledger     *MockInventoryLedger
	service    *services.ProductService
}

func newProductFixture() productFixture {
	f := productFixture{
		repo:       new(MockProductRepository),
		categories: new(MockCategoryRepository),
		ledger:     new(MockInventoryLedger),
	}
	f.service = services.NewProductService(f.repo, f.categories, f.ledger, zap.NewNop())
	return f
}

func productNotFound(id string) error {
	return fmt.Errorf("product with ID %s: %w", id, repositories.ErrNotFound)
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100},
		{ID: "2", Name: "Product B", Price: decimal.NewFromInt(20), Stock: 50},
	}
	f.categories.On("ChildIDs", ctx, "cat-1").Return([]string{"cat-2"}, nil).Once()
	f.repo.On("List", ctx, mock.MatchedBy(func(filter models.ProductFilter) bool {
		return filter.Page == 1 && filter.PerPage == 20 &&
			assert.ObjectsAreEqual([]string{"cat-1", "cat-2"}, filter.CategoryIDs)
	})).Return(expectedProducts, int64(41), nil).Once()

	page, err := f.service.ListProducts(ctx, models.ProductFilter{CategoryID: "cat-1"})
	assert.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 41, page.Total)
	assert.Equal(t, 3, page.Pages)
	f.repo.AssertExpectations(t)
	f.categories.AssertExpectations(t)
}

func TestProductService_ListProductsClampsPageSize(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.repo.On("List", ctx, mock.MatchedBy(func(filter models.ProductFilter) bool {
		return filter.PerPage == 100 && filter.Page == 1
	})).Return([]models.Product(nil), int64(0), nil).Once()

	page, err := f.service.ListProducts(ctx, models.ProductFilter{Page: -3, PerPage: 5000})
	assert.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.Pages)
	f.repo.AssertExpectations(t)
}

func TestProductService_ListProductsClampsHugePage(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.repo.On("List", ctx, mock.MatchedBy(func(filter models.ProductFilter) bool {
		offset := (filter.Page - 1) * filter.PerPage
		return filter.PerPage == 100 && filter.Page > 1 && offset >= 0 && offset <= math.MaxInt32
	})).Return([]models.Product(nil), int64(3), nil).Once()

	page, err := f.service.ListProducts(ctx, models.ProductFilter{Page: math.MaxInt, PerPage: 100})
	assert.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Less(t, page.Page, math.MaxInt32)
	f.repo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100}

	// Test successful retrieval
	f.repo.On("GetByID", ctx, "1").Return(expectedProduct, nil).Once()
	product, err := f.service.GetProductByID(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// Test product not found
	f.repo.On("GetByID", ctx, "99").Return(nil, productNotFound("99")).Once()
	product, err = f.service.GetProductByID(ctx, "99")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Nil(t, product)
	f.repo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	newProduct := &models.Product{Name: "New Product", Price: decimal.NewFromInt(50), Stock: 20}

	// Test successful creation
	f.repo.On("Create", ctx, newProduct).Return(nil).Once()
	assert.NoError(t, f.service.CreateProduct(ctx, newProduct))

	// Test creation failure (e.g., database error)
	f.repo.On("Create", ctx, newProduct).Return(fmt.Errorf("database error")).Once()
	err := f.service.CreateProduct(ctx, newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	f.repo.AssertExpectations(t)

	// Test unknown category
	missing := "cat-x"
	f.categories.On("GetByID", ctx, missing).Return(nil, fmt.Errorf("category with ID %s: %w", missing, repositories.ErrNotFound)).Once()
	err = f.service.CreateProduct(ctx, &models.Product{Name: "Orphan", Price: decimal.NewFromInt(1), CategoryID: &missing})
	assert.ErrorIs(t, err, services.ErrNotFound)
	f.categories.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	name := "Product A Updated"
	price := decimal.RequireFromString("12.50")

	// Test successful update
	f.repo.On("Update", ctx, "1", map[string]interface{}{"name": name, "price": price}).Return(nil).Once()
	f.repo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1", Name: name, Price: price, Stock: 95}, nil).Once()
	updated, err := f.service.UpdateProduct(ctx, "1", models.ProductUpdate{Name: &name, Price: &price})
	assert.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 95, updated.Stock)

	// Test update failure (product not found in repo)
	f.repo.On("Update", ctx, "99", map[string]interface{}{"name": name}).Return(productNotFound("99")).Once()
	_, err = f.service.UpdateProduct(ctx, "99", models.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, services.ErrNotFound)
	f.repo.AssertExpectations(t)
}

func TestProductService_SetStock(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()

	f.ledger.On("SetStock", ctx, "1", 7).Return(nil).Once()
	f.repo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1", Stock: 7}, nil).Once()
	product, err := f.service.SetStock(ctx, "1", 7)
	assert.NoError(t, err)
	assert.Equal(t, 7, product.Stock)

	f.ledger.On("SetStock", ctx, "1", -1).Return(repositories.ErrInvalidQuantity).Once()
	_, err = f.service.SetStock(ctx, "1", -1)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)
	f.ledger.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()

	// Test successful deletion
	f.repo.On("Delete", ctx, "1").Return(nil).Once()
	assert.NoError(t, f.service.DeleteProduct(ctx, "1"))

	// Test deletion failure (product not found)
	f.repo.On("Delete", ctx, "99").Return(productNotFound("99")).Once()
	err := f.service.DeleteProduct(ctx, "99")
	assert.ErrorIs(t, err, services.ErrNotFound)
	f.repo.AssertExpectations(t)
}
