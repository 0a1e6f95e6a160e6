package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrDemoAdminReadOnly  = errors.New("demo admin credentials cannot be changed")

	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNameUsed = errors.New("category name already exists")

	ErrProductNotFound = errors.New("product not found")
	ErrTooManyImages   = errors.New("too many images")

	ErrPhoneRegistered = errors.New("phone number already registered")
)

// CategoryInUseError blocks deleting a category that products still reference.
type CategoryInUseError struct {
	Count int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("Cannot delete category. %d products are associated with this category.", e.Count)
}
