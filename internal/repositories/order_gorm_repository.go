package repositories

import (
	"context"
	"fmt"

	"ecom/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, translate(err, "cart of user %s", userID)
	}
	return &cart, nil
}

func (r *GORMCartRepository) List(ctx context.Context) ([]models.Cart, error) {
	var carts []models.Cart
	if err := r.db.WithContext(ctx).Preload("Items.Product").Order("created_at").Find(&carts).Error; err != nil {
		return nil, fmt.Errorf("failed to list carts: %w", err)
	}
	return carts, nil
}

func (r *GORMCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(cart).Error; err != nil {
		return translate(err, "failed to create cart for user %s", cart.UserID)
	}
	return nil
}

func (r *GORMCartRepository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if err := tx.Omit("Product").Save(item).Error; err != nil {
			return fmt.Errorf("failed to save cart item: %w", err)
		}
		return recalculateCartTotals(tx, []string{item.CartID})
	})
}

func (r *GORMCartRepository) DeleteItem(ctx context.Context, cartID, productID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete cart item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product %s in cart %s: %w", productID, cartID, models.ErrNotFound)
		}
		return recalculateCartTotals(tx, []string{cartID})
	})
}

func (r *GORMCartRepository) RepriceProduct(ctx context.Context, productID string, price, discount float64) ([]string, error) {
	var cartIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CartItem{}).Where("product_id = ?", productID).
			Distinct("cart_id").Pluck("cart_id", &cartIDs).Error; err != nil {
			return fmt.Errorf("failed to find carts holding product %s: %w", productID, err)
		}
		if len(cartIDs) == 0 {
			return nil
		}
		if err := tx.Model(&models.CartItem{}).Where("product_id = ?", productID).
			Updates(map[string]interface{}{"price": price, "discount": discount}).Error; err != nil {
			return fmt.Errorf("failed to reprice cart items of product %s: %w", productID, err)
		}
		return recalculateCartTotals(tx, cartIDs)
	})
	return cartIDs, err
}

func (r *GORMCartRepository) RemoveProduct(ctx context.Context, productID string) ([]string, error) {
	var cartIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CartItem{}).Where("product_id = ?", productID).
			Distinct("cart_id").Pluck("cart_id", &cartIDs).Error; err != nil {
			return fmt.Errorf("failed to find carts holding product %s: %w", productID, err)
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove product %s from carts: %w", productID, err)
		}
		return recalculateCartTotals(tx, cartIDs)
	})
	return cartIDs, err
}

var orderSortColumns = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"status":       "status",
}

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) Place(ctx context.Context, order *models.Order, cartID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock of product %s: %w", item.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %s: %w", item.ProductID, models.ErrInsufficientStock)
			}
		}

		if order.ID == "" {
			order.ID = uuid.New().String()
		}
		for i := range order.Items {
			if order.Items[i].ID == "" {
				order.Items[i].ID = uuid.New().String()
			}
		}
		if order.Payment != nil && order.Payment.ID == "" {
			order.Payment.ID = uuid.New().String()
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to empty cart %s: %w", cartID, err)
		}
		return recalculateCartTotals(tx, []string{cartID})
	})
}

func (r *GORMOrderRepository) List(ctx context.Context, q models.PageQuery) ([]models.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("Payment").
		Scopes(paginate(q, orderSortColumns, "created_at")).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("Payment").
		Where("user_id = ?", userID).Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %s: %w", userID, err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").Preload("Payment").First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err, "order with ID %s", id)
	}
	return &order, nil
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	return nil
}
