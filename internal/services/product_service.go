package services

import (
	"context"
	"fmt"

	"ecom/internal/models"
	"ecom/internal/repositories"
)

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Discount    float64 `json:"discount" validate:"gte=0,lte=100"`
	Stock       int     `json:"stock" validate:"gte=0"`
	CategoryID  string  `json:"category_id" validate:"omitempty,max=36"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
	carts      repositories.CartRepository
	cache      *CacheService
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository, carts repositories.CartRepository, cache *CacheService) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		carts:      carts,
		cache:      cache,
	}
}

// GetAllProducts retrieves one page of all products.
func (s *ProductService) GetAllProducts(ctx context.Context, q models.PageQuery) (models.Page[models.Product], error) {
	return GetOrCompute(ctx, s.cache, RegionProducts, q.CacheKey(), func(ctx context.Context) (models.Page[models.Product], error) {
		return toPage(q)(s.repo.List(ctx, q))
	})
}

// GetProductsByCategory retrieves one page of the products of a category.
func (s *ProductService) GetProductsByCategory(ctx context.Context, categoryID string, q models.PageQuery) (models.Page[models.Product], error) {
	return GetOrCompute(ctx, s.cache, RegionProductsByCategory, categoryID+":"+q.CacheKey(), func(ctx context.Context) (models.Page[models.Product], error) {
		if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
			return models.Page[models.Product]{}, err
		}
		return toPage(q)(s.repo.ListByCategory(ctx, categoryID, q))
	})
}

// SearchProducts retrieves one page of the products whose name contains keyword.
func (s *ProductService) SearchProducts(ctx context.Context, keyword string, q models.PageQuery) (models.Page[models.Product], error) {
	return GetOrCompute(ctx, s.cache, RegionProductsByKeyword, keyword+":"+q.CacheKey(), func(ctx context.Context) (models.Page[models.Product], error) {
		return toPage(q)(s.repo.Search(ctx, keyword, q))
	})
}

// GetSellerProducts retrieves one page of the seller's own listings.
func (s *ProductService) GetSellerProducts(ctx context.Context, seller *models.Principal, q models.PageQuery) (models.Page[models.Product], error) {
	return toPage(q)(s.repo.ListBySeller(ctx, seller.UserID, q))
}

// toPage adapts a repository listing result to a page of q.
func toPage(q models.PageQuery) func([]models.Product, int64, error) (models.Page[models.Product], error) {
	return func(products []models.Product, total int64, err error) (models.Page[models.Product], error) {
		if err != nil {
			return models.Page[models.Product]{}, err
		}
		return models.NewPage(products, q, total), nil
	}
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct lists a new product under categoryID on behalf of actor.
func (s *ProductService) CreateProduct(ctx context.Context, actor *models.Principal, categoryID string, in ProductInput) (*models.Product, error) {
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Discount:    in.Discount,
		Stock:       in.Stock,
		CategoryID:  categoryID,
		SellerID:    actor.UserID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productRegions...)
	return product, nil
}

// UpdateProduct updates an existing product. Cart lines holding it are repriced.
func (s *ProductService) UpdateProduct(ctx context.Context, actor *models.Principal, id string, in ProductInput) (*models.Product, error) {
	product, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != "" && in.CategoryID != product.CategoryID {
		if _, err := s.categories.GetByID(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = in.CategoryID
	}
	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Discount = in.Discount
	product.Stock = in.Stock
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	// The product row is committed: evict on every path from here on.
	defer s.cache.Invalidate(ctx, append([]Region{RegionCarts}, productRegions...)...)
	if _, err := s.carts.RepriceProduct(ctx, product.ID, product.SpecialPrice, product.Discount); err != nil {
		return nil, fmt.Errorf("failed to reprice carts: %w", err)
	}
	return product, nil
}

// DeleteProduct deletes a product and removes it from every cart.
func (s *ProductService) DeleteProduct(ctx context.Context, actor *models.Principal, id string) (*models.Product, error) {
	product, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.carts.RemoveProduct(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to remove product from carts: %w", err)
	}
	// Cart lines are gone even if the product delete fails below.
	defer s.cache.Invalidate(ctx, append([]Region{RegionCarts}, productRegions...)...)
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return product, nil
}

// owned loads a product that actor may modify: administrators may modify any product,
// sellers only their own.
func (s *ProductService) owned(ctx context.Context, actor *models.Principal, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && product.SellerID != actor.UserID {
		return nil, fmt.Errorf("product %s belongs to another seller: %w", id, models.ErrForbidden)
	}
	return product, nil
}
