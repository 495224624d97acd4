package services

import (
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CategoryService handles business logic related to catalog categories.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// ListActive returns the active categories.
func (s *CategoryService) ListActive() ([]models.Category, error) {
	return s.repo.GetActive()
}

// Create stores a new category. A parent, when given, must exist.
func (s *CategoryService) Create(category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return validationError("category name is required")
	}
	if category.ParentCategoryID != nil {
		if _, err := s.repo.GetByID(*category.ParentCategoryID); err != nil {
			return err
		}
	}
	return s.repo.Create(category)
}
