package services

import (
	"context"

	"ecom/internal/models"
	"ecom/internal/repositories"
)

// UserDetailsService resolves usernames to principals through the userDetails cache region.
type UserDetailsService struct {
	userRepo repositories.UserRepository
	cache    *CacheService
}

// NewUserDetailsService creates a new UserDetailsService.
func NewUserDetailsService(userRepo repositories.UserRepository, cache *CacheService) *UserDetailsService {
	return &UserDetailsService{
		userRepo: userRepo,
		cache:    cache,
	}
}

// LoadByUsername returns the principal of username, or an ErrNotFound-wrapping error.
func (s *UserDetailsService) LoadByUsername(ctx context.Context, username string) (*models.Principal, error) {
	return GetOrCompute(ctx, s.cache, RegionUserDetails, username, func(ctx context.Context) (*models.Principal, error) {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		return models.NewPrincipal(user), nil
	})
}
