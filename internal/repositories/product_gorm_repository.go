package repositories

import (
	"context"
	"fmt"
	"strings"

	"ecom/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var productSortColumns = map[string]string{
	"name":          "name",
	"price":         "price",
	"special_price": "special_price",
	"stock":         "stock",
	"created_at":    "created_at",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List returns one page of all products.
func (r *GORMProductRepository) List(ctx context.Context, q models.PageQuery) ([]models.Product, int64, error) {
	return r.page(ctx, q, r.db.WithContext(ctx).Model(&models.Product{}))
}

// ListByCategory returns one page of the products of a category.
func (r *GORMProductRepository) ListByCategory(ctx context.Context, categoryID string, q models.PageQuery) ([]models.Product, int64, error) {
	return r.page(ctx, q, r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID))
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns one page of products whose name contains keyword, case-insensitively.
func (r *GORMProductRepository) Search(ctx context.Context, keyword string, q models.PageQuery) ([]models.Product, int64, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"
	return r.page(ctx, q, r.db.WithContext(ctx).Model(&models.Product{}).Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern))
}

// ListBySeller returns one page of the products listed by a seller.
func (r *GORMProductRepository) ListBySeller(ctx context.Context, sellerID string, q models.PageQuery) ([]models.Product, int64, error) {
	return r.page(ctx, q, r.db.WithContext(ctx).Model(&models.Product{}).Where("seller_id = ?", sellerID))
}

func (r *GORMProductRepository) page(ctx context.Context, q models.PageQuery, base *gorm.DB) ([]models.Product, int64, error) {
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	var products []models.Product
	if err := base.Session(&gorm.Session{}).Scopes(paginate(q, productSortColumns, "name")).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "product with ID %s", id)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translate(err, "failed to create product")
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	// Save writes every field, including zero values. Callers load the product first.
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return translate(err, "failed to update product")
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, models.ErrNotFound)
	}
	return nil
}

var categorySortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

func (r *GORMCategoryRepository) List(ctx context.Context, q models.PageQuery) ([]models.Category, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}
	var categories []models.Category
	if err := r.db.WithContext(ctx).Scopes(paginate(q, categorySortColumns, "name")).Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, total, nil
}

func (r *GORMCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err, "category with ID %s", id)
	}
	return &category, nil
}

func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return translate(err, "category %q", category.Name)
	}
	return nil
}

func (r *GORMCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return translate(err, "category %q", category.Name)
	}
	return nil
}

// Delete removes a category and the products listed under it.
func (r *GORMCategoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := tx.Model(&models.Product{}).Select("id").Where("category_id = ?", id)
		var cartIDs []string
		if err := tx.Model(&models.CartItem{}).Distinct("cart_id").Where("product_id IN (?)", products).
			Pluck("cart_id", &cartIDs).Error; err != nil {
			return fmt.Errorf("failed to find carts holding category %s: %w", id, err)
		}
		if err := tx.Where("product_id IN (?)", products).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove cart items of category %s: %w", id, err)
		}
		if err := recalculateCartTotals(tx, cartIDs); err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("failed to delete products of category %s: %w", id, err)
		}
		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("category with ID %s: %w", id, models.ErrNotFound)
		}
		return nil
	})
}
