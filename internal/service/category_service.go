package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eterna/internal/cache"
	"eterna/internal/domain"
	"eterna/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryInput carries the fields of a new category
type CategoryInput struct {
	Name        string
	Description string
	Status      string
}

// CategoryUpdate carries the fields to change; nil fields keep their value
type CategoryUpdate struct {
	Name        *string
	Description *string
	Status      *string
}

// CategoryService manages the product taxonomy
type CategoryService interface {
	List(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	listings     cache.ListingCache
	logger       *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository, listings cache.ListingCache, logger *zap.Logger) CategoryService {
	if listings == nil {
		listings = cache.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &categoryService{categoryRepo: categoryRepo, listings: listings, logger: logger}
}

func (s *categoryService) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// Create adds a category. Names are unique.
func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)

	if _, err := s.categoryRepo.FindByName(ctx, name); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}

	now := time.Now()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      statusOrDefault(input.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}

	return category, nil
}

// Update changes the supplied fields. Renaming onto another category's name
// is rejected.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*domain.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != category.Name {
			existing, err := s.categoryRepo.FindByName(ctx, name)
			if err == nil && existing.ID != id {
				return nil, ErrCategoryNameUsed
			}
			if err != nil && !errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, fmt.Errorf("failed to check category name: %w", err)
			}
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		category.Status = *input.Status
	}
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryAlreadyExists):
			return nil, ErrCategoryNameUsed
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	// Product reads embed the category name and are filtered on its id.
	s.invalidate(ctx)
	return category, nil
}

// Delete removes a category that no product references.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &CategoryInUseError{Count: count}
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return ErrCategoryNotFound
		case errors.Is(err, repository.ErrCategoryInUse):
			// A product was attached after the count.
			count, countErr := s.categoryRepo.CountProducts(ctx, id)
			if countErr != nil {
				return countErr
			}
			return &CategoryInUseError{Count: count}
		}
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *categoryService) invalidate(ctx context.Context) {
	if err := s.listings.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate listing cache", zap.Error(err))
	}
}

func statusOrDefault(status string) string {
	if status == "" {
		return domain.StatusActive
	}
	return status
}
