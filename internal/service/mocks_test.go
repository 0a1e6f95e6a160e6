package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"eterna/internal/domain"
	"eterna/internal/repository"
	"eterna/internal/storage"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockAdminRepository struct {
	admins map[string]*domain.Admin
	err    error
}

func newMockAdminRepository() *mockAdminRepository {
	return &mockAdminRepository{admins: make(map[string]*domain.Admin)}
}

func (m *mockAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	if _, exists := m.admins[admin.Email]; exists {
		return repository.ErrAdminAlreadyExists
	}
	m.admins[admin.Email] = admin
	return nil
}

func (m *mockAdminRepository) UpdateCredentials(ctx context.Context, admin *domain.Admin) error {
	for email, existing := range m.admins {
		if existing.ID == admin.ID {
			if other, taken := m.admins[admin.Email]; taken && other.ID != admin.ID {
				return repository.ErrAdminAlreadyExists
			}
			delete(m.admins, email)
			m.admins[admin.Email] = admin
			return nil
		}
	}
	return repository.ErrAdminNotFound
}

func (m *mockAdminRepository) FindByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	if m.err != nil {
		return nil, m.err
	}
	admin, exists := m.admins[email]
	if !exists {
		return nil, repository.ErrAdminNotFound
	}
	copied := *admin
	return &copied, nil
}

func (m *mockAdminRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Admin, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, admin := range m.admins {
		if admin.ID == id {
			copied := *admin
			return &copied, nil
		}
	}
	return nil, repository.ErrAdminNotFound
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
	products   *mockProductRepository
	deleteErr  error
}

func newMockCategoryRepository(products *mockProductRepository) *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category), products: products}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.categories {
		if activeOnly && c.Status != domain.StatusActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	if m.products == nil {
		return 0, nil
	}
	count := 0
	for _, p := range m.products.products {
		if p.CategoryID == id {
			count++
		}
	}
	return count, nil
}

type mockProductRepository struct {
	products  map[uuid.UUID]*domain.Product
	listCalls int
	updateErr error
	createErr error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	copied.Images = append([]string(nil), p.Images...)
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	m.listCalls++

	matched := []*domain.Product{}
	for _, p := range m.products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Featured && !p.Featured {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type mockContactRepository struct {
	contacts []*domain.Contact
}

func (m *mockContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	for _, c := range m.contacts {
		if c.Phone == contact.Phone {
			return repository.ErrContactPhoneExists
		}
	}
	m.contacts = append(m.contacts, contact)
	return nil
}

func (m *mockContactRepository) FindByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	for _, c := range m.contacts {
		if c.Phone == phone {
			return c, nil
		}
	}
	return nil, repository.ErrContactNotFound
}

func (m *mockContactRepository) List(ctx context.Context) ([]*domain.Contact, error) {
	out := make([]*domain.Contact, 0, len(m.contacts))
	for i := len(m.contacts) - 1; i >= 0; i-- {
		out = append(out, m.contacts[i])
	}
	return out, nil
}

// memoryImageStore keeps "stored" files in a set
type memoryImageStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	next    int
	saveErr error
}

func newMemoryImageStore() *memoryImageStore {
	return &memoryImageStore{files: make(map[string][]byte)}
}

func (s *memoryImageStore) Save(ctx context.Context, r io.Reader) (*storage.StoredFile, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	name := uuid.New().String() + ".png"
	p := storage.PublicPrefix + "/products/" + name
	s.files[p] = buf.Bytes()
	return &storage.StoredFile{Filename: name, Path: p, MimeType: "image/png", Size: int64(buf.Len())}, nil
}

func (s *memoryImageStore) Delete(ctx context.Context, publicPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, publicPath)
	return nil
}

func (s *memoryImageStore) Owns(publicPath string) bool {
	return len(publicPath) > len(storage.PublicPrefix) && publicPath[:len(storage.PublicPrefix)+1] == storage.PublicPrefix+"/"
}

func (s *memoryImageStore) has(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[p]
	return ok
}

func (s *memoryImageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// spyCache counts invalidations and serves entries from memory
type spyCache struct {
	entries       map[string]interface{}
	invalidations int
	fail          bool
}

func newSpyCache() *spyCache {
	return &spyCache{entries: make(map[string]interface{})}
}

var errCacheDown = errors.New("cache down")

func (c *spyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.fail {
		return false, errCacheDown
	}
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *domain.ProductPage:
		*d = *(v.(*domain.ProductPage))
	case *[]*domain.Product:
		*d = v.([]*domain.Product)
	}
	return true, nil
}

func (c *spyCache) Set(ctx context.Context, key string, value interface{}) error {
	if c.fail {
		return errCacheDown
	}
	c.entries[key] = value
	return nil
}

func (c *spyCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	c.entries = make(map[string]interface{})
	if c.fail {
		return errCacheDown
	}
	return nil
}

func imageSource(content string) ImageSource {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewBufferString(content)), nil
	}
}
