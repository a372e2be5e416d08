package repositories

import (
	"context"
	"fmt"

	"ecom/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var userSortColumns = map[string]string{
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user together with its role links.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err, "failed to create user %s", user.Username)
	}
	return nil
}

// GetByUsername retrieves a user and its roles by username.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByEmail retrieves a user and its roles by email.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByID retrieves a user and its roles by ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, query, arg).Error; err != nil {
		return nil, translate(err, "user %s", arg)
	}
	return &user, nil
}

// List returns one page of users.
func (r *GORMUserRepository) List(ctx context.Context, q models.PageQuery) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Roles").
		Scopes(paginate(q, userSortColumns, "username")).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// ListByRole returns one page of the users holding role.
func (r *GORMUserRepository) ListByRole(ctx context.Context, role string, q models.PageQuery) ([]models.User, int64, error) {
	holders := r.db.WithContext(ctx).Table("user_roles").
		Select("user_roles.user_id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", role)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN (?)", holders).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users with role %s: %w", role, err)
	}
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Roles").
		Where("id IN (?)", holders).
		Scopes(paginate(q, userSortColumns, "username")).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users with role %s: %w", role, err)
	}
	return users, total, nil
}

// EnsureRoles returns the named roles, creating any that are missing.
func (r *GORMUserRepository) EnsureRoles(ctx context.Context, names ...string) ([]models.Role, error) {
	roles := make([]models.Role, 0, len(names))
	for _, name := range names {
		role := models.Role{Name: name}
		if err := r.db.WithContext(ctx).Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return nil, fmt.Errorf("failed to ensure role %s: %w", name, err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// GORMAddressRepository is a GORM implementation of AddressRepository.
type GORMAddressRepository struct {
	db *gorm.DB
}

// NewGORMAddressRepository creates a new instance of GORMAddressRepository.
func NewGORMAddressRepository(db *gorm.DB) *GORMAddressRepository {
	return &GORMAddressRepository{db: db}
}

func (r *GORMAddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses of user %s: %w", userID, err)
	}
	return addresses, nil
}

func (r *GORMAddressRepository) GetByID(ctx context.Context, id string) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, translate(err, "address %s", id)
	}
	return &address, nil
}

func (r *GORMAddressRepository) Create(ctx context.Context, address *models.Address) error {
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return translate(err, "failed to create address")
	}
	return nil
}

func (r *GORMAddressRepository) Update(ctx context.Context, address *models.Address) error {
	res := r.db.WithContext(ctx).Model(address).
		Select("street", "building", "city", "state", "country", "pincode").
		Updates(address)
	if res.Error != nil {
		return fmt.Errorf("failed to update address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address %s: %w", address.ID, models.ErrNotFound)
	}
	return nil
}

func (r *GORMAddressRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("address %s: %w", id, models.ErrNotFound)
	}
	return nil
}
