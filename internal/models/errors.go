package models

import "errors"

// Domain errors shared by repositories, services and handlers. Callers wrap them with
// fmt.Errorf("...: %w") and test with errors.Is.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInsufficientStock  = errors.New("insufficient stock")
)
