package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"eterna/internal/cache"
	"eterna/internal/domain"
	"eterna/internal/repository"
	"eterna/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 12
	MaxLimit        = 100
	FeaturedLimit   = 6
	DefaultSortBy   = "created_at"
	DefaultSortDesc = "desc"
)

// ImageSource opens one uploaded file
type ImageSource func() (io.ReadCloser, error)

// ProductInput carries the fields of a new product. Uploads take precedence
// over Images.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  uuid.UUID
	Images      []string
	Ingredients string
	Usage       string
	Featured    bool
	Status      string
	Uploads     []ImageSource
}

// ProductUpdate carries the fields to change; nil fields keep their value
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *uuid.UUID
	Images      *[]string
	Ingredients *string
	Usage       *string
	Featured    *bool
	Status      *string
	Uploads     []ImageSource
}

// ProductService handles catalog reads and writes
type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	Featured(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	images       storage.ImageStore
	listings     cache.ListingCache
	logger       *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	images storage.ImageStore,
	listings cache.ListingCache,
	logger *zap.Logger,
) ProductService {
	if listings == nil {
		listings = cache.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		images:       images,
		listings:     listings,
		logger:       logger,
	}
}

// NormalizeFilter fills in paging and ordering defaults
func NormalizeFilter(filter domain.ProductFilter) domain.ProductFilter {
	if filter.Page < 1 {
		filter.Page = DefaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	// Keep the offset representable
	if maxPage := math.MaxInt/filter.Limit + 1; filter.Page > maxPage {
		filter.Page = maxPage
	}
	if filter.SortBy == "" {
		filter.SortBy = DefaultSortBy
	}
	filter.SortOrder = strings.ToLower(filter.SortOrder)
	if filter.SortOrder == "" {
		filter.SortOrder = DefaultSortDesc
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return filter
}

func listingKey(f domain.ProductFilter) string {
	category := "all"
	if f.CategoryID != nil {
		category = f.CategoryID.String()
	}
	return fmt.Sprintf("products:p=%d:l=%d:c=%s:f=%t:st=%s:s=%s:%s:q=%s",
		f.Page, f.Limit, category, f.Featured, f.Status, f.SortBy, f.SortOrder, f.Search)
}

// List returns one page of products, served from the listing cache when possible
func (s *productService) List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter = NormalizeFilter(filter)
	key := listingKey(filter)

	var cached domain.ProductPage
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &domain.ProductPage{
		Products:   products,
		Pagination: domain.NewPagination(filter.Page, filter.Limit, total),
	}
	s.cacheSet(ctx, key, page)
	return page, nil
}

// Featured returns the newest active products marked as featured
func (s *productService) Featured(ctx context.Context) ([]*domain.Product, error) {
	const key = "products:featured"

	var cached []*domain.Product
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	products, _, err := s.productRepo.List(ctx, domain.ProductFilter{
		Page:      1,
		Limit:     FeaturedLimit,
		Featured:  true,
		Status:    domain.StatusActive,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortDesc,
	})
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, products)
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// Create stores a product. Uploaded files are removed again when the product
// cannot be persisted.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	category, err := s.requireCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	images := input.Images
	var uploaded []string
	if len(input.Uploads) > 0 {
		uploaded, err = s.saveUploads(ctx, input.Uploads)
		if err != nil {
			return nil, err
		}
		images = uploaded
	}
	if images == nil {
		images = []string{}
	}
	if len(images) > domain.MaxProductImages {
		s.removeFiles(ctx, uploaded)
		return nil, ErrTooManyImages
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price.Round(2),
		CategoryID:  category.ID,
		Category:    domain.CategoryRef{ID: category.ID, Name: category.Name},
		Images:      images,
		Ingredients: strings.TrimSpace(input.Ingredients),
		Usage:       strings.TrimSpace(input.Usage),
		Featured:    input.Featured,
		Status:      statusOrDefault(input.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.removeFiles(ctx, uploaded)
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	s.invalidate(ctx)
	return product, nil
}

// Update changes the supplied fields. Stored images dropped from the product
// are deleted once the new image set is persisted.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductUpdate) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		category, err := s.requireCategory(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
		product.Category = domain.CategoryRef{ID: category.ID, Name: category.Name}
	}

	previous := product.Images
	var uploaded []string
	switch {
	case len(input.Uploads) > 0:
		uploaded, err = s.saveUploads(ctx, input.Uploads)
		if err != nil {
			return nil, err
		}
		product.Images = uploaded
	case input.Images != nil:
		product.Images = *input.Images
		if product.Images == nil {
			product.Images = []string{}
		}
	}
	if len(product.Images) > domain.MaxProductImages {
		s.removeFiles(ctx, uploaded)
		return nil, ErrTooManyImages
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Ingredients != nil {
		product.Ingredients = strings.TrimSpace(*input.Ingredients)
	}
	if input.Usage != nil {
		product.Usage = strings.TrimSpace(*input.Usage)
	}
	if input.Featured != nil {
		product.Featured = *input.Featured
	}
	if input.Status != nil {
		product.Status = *input.Status
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.removeFiles(ctx, uploaded)
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	s.removeFiles(ctx, dropped(previous, product.Images))
	s.invalidate(ctx)
	return product, nil
}

// Delete removes the product and then its stored images
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	s.removeFiles(ctx, product.Images)
	s.invalidate(ctx)
	return nil
}

func (s *productService) requireCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *productService) saveUploads(ctx context.Context, uploads []ImageSource) ([]string, error) {
	if len(uploads) > domain.MaxProductImages {
		return nil, ErrTooManyImages
	}

	paths := make([]string, 0, len(uploads))
	for _, open := range uploads {
		stored, err := s.saveUpload(ctx, open)
		if err != nil {
			s.removeFiles(ctx, paths)
			return nil, err
		}
		paths = append(paths, stored.Path)
	}
	return paths, nil
}

func (s *productService) saveUpload(ctx context.Context, open ImageSource) (*storage.StoredFile, error) {
	f, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return s.images.Save(ctx, f)
}

// removeFiles deletes stored images. Failures are logged and skipped.
func (s *productService) removeFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		if !s.images.Owns(p) {
			continue
		}
		if err := s.images.Delete(ctx, p); err != nil {
			s.logger.Warn("failed to delete product image", zap.String("path", p), zap.Error(err))
		}
	}
}

// dropped lists the entries of before that are missing from after
func dropped(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, p := range after {
		keep[p] = struct{}{}
	}
	var out []string
	for _, p := range before {
		if _, ok := keep[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *productService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.listings.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *productService) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.listings.Set(ctx, key, value); err != nil {
		s.logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *productService) invalidate(ctx context.Context) {
	if err := s.listings.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate listing cache", zap.Error(err))
	}
}
