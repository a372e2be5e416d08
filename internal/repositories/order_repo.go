package repositories

import (
	"context"

	"ecom/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetByUserID loads the user's cart with its items and their products.
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	List(ctx context.Context) ([]models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	// SaveItem inserts or updates a line and recalculates the cart total.
	SaveItem(ctx context.Context, item *models.CartItem) error
	// DeleteItem removes the product's line from the cart and recalculates the cart total.
	DeleteItem(ctx context.Context, cartID, productID string) error
	// RepriceProduct updates every cart line of productID and the affected totals.
	RepriceProduct(ctx context.Context, productID string, price, discount float64) ([]string, error)
	// RemoveProduct deletes every cart line of productID and returns the IDs of affected carts.
	RemoveProduct(ctx context.Context, productID string) ([]string, error)
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Place persists order, decrements stock of every item and empties the cart, atomically.
	Place(ctx context.Context, order *models.Order, cartID string) error
	List(ctx context.Context, q models.PageQuery) ([]models.Order, int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}
