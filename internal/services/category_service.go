package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"edhaus/internal/models"
	"edhaus/internal/repositories"
)

// CategoryService manages the catalog tree.
type CategoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Tree returns the root categories with their subcategories.
func (s *CategoryService) Tree(ctx context.Context) ([]models.Category, error) {
	return s.repo.Roots(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new category. The slug is derived from the name when not given.
func (s *CategoryService) Create(ctx context.Context, category *models.Category) error {
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}
	if category.Slug == "" {
		return fmt.Errorf("category name yields an empty slug: %w", ErrValidation)
	}
	exists, err := s.repo.SlugExists(ctx, category.Slug)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("category slug '%s' already exists: %w", category.Slug, ErrConflict)
	}
	if category.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *category.ParentID); err != nil {
			return fmt.Errorf("parent category: %w", err)
		}
	}
	category.Subcategories = nil
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("category slug '%s' already exists: %w", category.Slug, ErrConflict)
		}
		return err
	}
	return nil
}

// Update applies the allow-listed fields and returns the stored category.
func (s *CategoryService) Update(ctx context.Context, id string, update models.CategoryUpdate) (*models.Category, error) {
	if columns := update.Columns(); len(columns) > 0 {
		if err := s.repo.Update(ctx, id, columns); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
