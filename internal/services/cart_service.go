package services

import (
	"context"
	"errors"
	"fmt"

	"ecom/internal/models"
	"ecom/internal/repositories"
)

// Quantity operations accepted by UpdateQuantity.
const (
	QuantityAdd    = "add"
	QuantityDelete = "delete"
)

// CartService handles business logic related to shopping carts.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	cache    *CacheService
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, cache *CacheService) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		cache:    cache,
	}
}

// GetCart returns the cart of user.
func (s *CartService) GetCart(ctx context.Context, user *models.Principal) (*models.Cart, error) {
	return GetOrCompute(ctx, s.cache, RegionCarts, user.Username, func(ctx context.Context) (*models.Cart, error) {
		return s.carts.GetByUserID(ctx, user.UserID)
	})
}

// GetAllCarts returns every cart. Administrators only.
func (s *CartService) GetAllCarts(ctx context.Context) ([]models.Cart, error) {
	carts, err := s.carts.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, fmt.Errorf("no cart exists: %w", models.ErrNotFound)
	}
	return carts, nil
}

// AddProduct puts quantity units of a product into the user's cart, creating the cart on first use.
func (s *CartService) AddProduct(ctx context.Context, user *models.Principal, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", models.ErrValidation)
	}
	cart, err := s.userCart(ctx, user)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, item := range cart.Items {
		if item.ProductID == productID {
			return nil, fmt.Errorf("product %s already exists in the cart: %w", product.Name, models.ErrConflict)
		}
	}
	if err := checkStock(product, quantity); err != nil {
		return nil, err
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.SpecialPrice,
		Discount:  product.Discount,
	}
	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return s.reload(ctx, user)
}

// UpdateQuantity adds or removes one unit of a product already in the user's cart.
// A line whose quantity drops to zero is removed.
func (s *CartService) UpdateQuantity(ctx context.Context, user *models.Principal, productID, op string) (*models.Cart, error) {
	var delta int
	switch op {
	case QuantityAdd:
		delta = 1
	case QuantityDelete:
		delta = -1
	default:
		return nil, fmt.Errorf("unknown quantity operation %q: %w", op, models.ErrValidation)
	}

	cart, err := s.carts.GetByUserID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	var item *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			item = &cart.Items[i]
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("product %s not in cart: %w", productID, models.ErrNotFound)
	}

	newQuantity := item.Quantity + delta
	if newQuantity == 0 {
		return s.RemoveProduct(ctx, user, productID)
	}
	if err := checkStock(&item.Product, newQuantity); err != nil {
		return nil, err
	}
	item.Quantity = newQuantity
	item.Price = item.Product.SpecialPrice
	item.Discount = item.Product.Discount
	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return s.reload(ctx, user)
}

// RemoveProduct deletes a product's line from the user's cart.
func (s *CartService) RemoveProduct(ctx context.Context, user *models.Principal, productID string) (*models.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	}
	return s.reload(ctx, user)
}

func (s *CartService) userCart(ctx context.Context, user *models.Principal) (*models.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, user.UserID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	cart = &models.Cart{UserID: user.UserID}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// reload evicts the cached cart of user and returns its current state.
func (s *CartService) reload(ctx context.Context, user *models.Principal) (*models.Cart, error) {
	s.cache.InvalidateKey(ctx, RegionCarts, user.Username)
	return s.carts.GetByUserID(ctx, user.UserID)
}

func checkStock(product *models.Product, quantity int) error {
	if product.Stock == 0 {
		return fmt.Errorf("%s is not available: %w", product.Name, models.ErrInsufficientStock)
	}
	if product.Stock < quantity {
		return fmt.Errorf("please order %s in a quantity less than or equal to %d: %w",
			product.Name, product.Stock, models.ErrInsufficientStock)
	}
	return nil
}
