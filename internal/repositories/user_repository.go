package repositories

import (
	"context"

	"ecom/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, q models.PageQuery) ([]models.User, int64, error)
	ListByRole(ctx context.Context, role string, q models.PageQuery) ([]models.User, int64, error)
	// EnsureRoles returns the named roles, creating any that do not exist yet.
	EnsureRoles(ctx context.Context, names ...string) ([]models.Role, error)
}

// AddressRepository defines the interface for address data access.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
	GetByID(ctx context.Context, id string) (*models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id string) error
}
