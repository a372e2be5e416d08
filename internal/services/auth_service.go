package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ecom/internal/models"
	"ecom/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// SignupRequest is the input of a registration.
type SignupRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=100"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Roles    []string `json:"roles" validate:"omitempty,dive,oneof=user seller USER SELLER"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *TokenService
	cache    *CacheService
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService, cache *CacheService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		cache:    cache,
	}
}

// RegisterUser registers a new user, hashes their password, and saves them to the database.
// Self-registration may request USER and SELLER; ADMIN accounts are provisioned out of band.
func (s *AuthService) RegisterUser(ctx context.Context, req SignupRequest) (*models.User, error) {
	// Check if username or email already exists
	if existing, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("username '%s' already taken: %w", req.Username, models.ErrConflict)
	}
	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' already registered: %w", req.Email, models.ErrConflict)
	}

	roleNames, err := signupRoles(req.Roles)
	if err != nil {
		return nil, err
	}
	return s.createUser(ctx, req.Username, req.Email, req.Password, roleNames)
}

// EnsureAdmin creates the administrator account if no user with username exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	_, err := s.createUser(ctx, username, email, password, []string{models.RoleUser, models.RoleSeller, models.RoleAdmin})
	if err != nil {
		return err
	}
	slog.Info("administrator account created", slog.String("username", username))
	return nil
}

func (s *AuthService) createUser(ctx context.Context, username, email, password string, roleNames []string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	roles, err := s.userRepo.EnsureRoles(ctx, roleNames...)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Roles:    roles,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	if user.HasRole(models.RoleSeller) {
		s.cache.Invalidate(ctx, RegionSellers)
	}
	return user, nil
}

func signupRoles(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return []string{models.RoleUser}, nil
	}
	seen := map[string]bool{models.RoleUser: true}
	names := []string{models.RoleUser}
	for _, r := range requested {
		switch r {
		case "user", models.RoleUser:
		case "seller", models.RoleSeller:
			if !seen[models.RoleSeller] {
				seen[models.RoleSeller] = true
				names = append(names, models.RoleSeller)
			}
		default:
			return nil, fmt.Errorf("role %q cannot be self-assigned: %w", r, models.ErrValidation)
		}
	}
	return names, nil
}

// LoginUser authenticates a user and returns a signed token and the resolved identity.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, *models.Principal, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Unknown usernames and wrong passwords are indistinguishable to the caller.
		return "", nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, models.NewPrincipal(user), nil
}

// ListUsers returns one page of all accounts.
func (s *AuthService) ListUsers(ctx context.Context, q models.PageQuery) (models.Page[models.User], error) {
	users, total, err := s.userRepo.List(ctx, q)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, q, total), nil
}

// ListSellers returns one page of the accounts holding the SELLER role.
func (s *AuthService) ListSellers(ctx context.Context, q models.PageQuery) (models.Page[models.User], error) {
	return GetOrCompute(ctx, s.cache, RegionSellers, q.CacheKey(), func(ctx context.Context) (models.Page[models.User], error) {
		sellers, total, err := s.userRepo.ListByRole(ctx, models.RoleSeller, q)
		if err != nil {
			return models.Page[models.User]{}, err
		}
		return models.NewPage(sellers, q, total), nil
	})
}
