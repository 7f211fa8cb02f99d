package repositories

import (
	"context"

	"edhaus/internal/models"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	Roots(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ChildIDs(ctx context.Context, id string) ([]string, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id string, columns map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}
