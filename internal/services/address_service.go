package services

import (
	"context"
	"fmt"

	"ecom/internal/models"
	"ecom/internal/repositories"
)

// AddressService manages the shipping addresses of users.
type AddressService struct {
	repo repositories.AddressRepository
}

// NewAddressService creates a new AddressService.
func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// ListAddresses returns the addresses of user.
func (s *AddressService) ListAddresses(ctx context.Context, user *models.Principal) ([]models.Address, error) {
	return s.repo.ListByUser(ctx, user.UserID)
}

// CreateAddress stores a new address owned by user.
func (s *AddressService) CreateAddress(ctx context.Context, user *models.Principal, address models.Address) (*models.Address, error) {
	address.ID = ""
	address.UserID = user.UserID
	if err := s.repo.Create(ctx, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// UpdateAddress replaces the fields of an address owned by user.
func (s *AddressService) UpdateAddress(ctx context.Context, user *models.Principal, id string, in models.Address) (*models.Address, error) {
	address, err := s.Owned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	address.Street = in.Street
	address.Building = in.Building
	address.City = in.City
	address.State = in.State
	address.Country = in.Country
	address.Pincode = in.Pincode
	if err := s.repo.Update(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes an address owned by user.
func (s *AddressService) DeleteAddress(ctx context.Context, user *models.Principal, id string) error {
	if _, err := s.Owned(ctx, user, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Owned loads an address and checks that it belongs to user.
func (s *AddressService) Owned(ctx context.Context, user *models.Principal, id string) (*models.Address, error) {
	address, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if address.UserID != user.UserID {
		return nil, fmt.Errorf("address %s belongs to another user: %w", id, models.ErrForbidden)
	}
	return address, nil
}
