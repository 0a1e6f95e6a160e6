package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eterna/internal/domain"
	"eterna/internal/repository"

	"github.com/google/uuid"
)

// ContactInput is a storefront inquiry as submitted
type ContactInput struct {
	Name    string
	Phone   string
	Email   string
	Message string
}

// ContactService records inquiries. A phone number can only be registered once.
type ContactService interface {
	Submit(ctx context.Context, input ContactInput) (*domain.Contact, error)
	List(ctx context.Context) ([]*domain.Contact, error)
}

type contactService struct {
	contactRepo repository.ContactRepository
}

// NewContactService creates a new instance of ContactService
func NewContactService(contactRepo repository.ContactRepository) ContactService {
	return &contactService{contactRepo: contactRepo}
}

func (s *contactService) Submit(ctx context.Context, input ContactInput) (*domain.Contact, error) {
	phone := strings.TrimSpace(input.Phone)

	if _, err := s.contactRepo.FindByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneRegistered
	} else if !errors.Is(err, repository.ErrContactNotFound) {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}

	contact := &domain.Contact{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		Phone:     phone,
		Email:     NormalizeEmail(input.Email),
		Message:   strings.TrimSpace(input.Message),
		CreatedAt: time.Now(),
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrContactPhoneExists) {
			return nil, ErrPhoneRegistered
		}
		return nil, err
	}

	return contact, nil
}

func (s *contactService) List(ctx context.Context) ([]*domain.Contact, error) {
	return s.contactRepo.List(ctx)
}
