package repositories

import (
	"context"

	"ecom/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, q models.PageQuery) ([]models.Product, int64, error)
	ListByCategory(ctx context.Context, categoryID string, q models.PageQuery) ([]models.Product, int64, error)
	Search(ctx context.Context, keyword string, q models.PageQuery) ([]models.Product, int64, error)
	ListBySeller(ctx context.Context, sellerID string, q models.PageQuery) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	List(ctx context.Context, q models.PageQuery) ([]models.Category, int64, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}
