package services

import (
	"context"

	"ecom/internal/models"
	"ecom/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo  repositories.CategoryRepository
	cache *CacheService
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository, cache *CacheService) *CategoryService {
	return &CategoryService{
		repo:  repo,
		cache: cache,
	}
}

// ListCategories returns one page of categories.
func (s *CategoryService) ListCategories(ctx context.Context, q models.PageQuery) (models.Page[models.Category], error) {
	return GetOrCompute(ctx, s.cache, RegionCategories, q.CacheKey(), func(ctx context.Context) (models.Page[models.Category], error) {
		categories, total, err := s.repo.List(ctx, q)
		if err != nil {
			return models.Page[models.Category]{}, err
		}
		return models.NewPage(categories, q, total), nil
	})
}

// CreateCategory creates a new category.
func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, RegionCategories)
	return category, nil
}

// UpdateCategory renames a category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, RegionCategories)
	return category, nil
}

// DeleteCategory deletes a category along with its products and their cart lines.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, append([]Region{RegionCategories, RegionCarts}, productRegions...)...)
	return category, nil
}
