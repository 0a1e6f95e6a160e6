package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"eterna/internal/domain"
	"eterna/internal/middleware"
	"eterna/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type stubAuthService struct {
	service.AuthService
	login       func(ctx context.Context, email, password string) (string, *domain.Admin, error)
	current     func(ctx context.Context, claims *service.Claims) (*domain.Admin, error)
	credentials func(ctx context.Context, id uuid.UUID, email, password string) (*domain.Admin, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	return s.login(ctx, email, password)
}

func (s *stubAuthService) CurrentAdmin(ctx context.Context, claims *service.Claims) (*domain.Admin, error) {
	return s.current(ctx, claims)
}

func (s *stubAuthService) UpdateCredentials(ctx context.Context, id uuid.UUID, email, password string) (*domain.Admin, error) {
	return s.credentials(ctx, id, email, password)
}

type stubCategoryService struct {
	service.CategoryService
	list   func(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	get    func(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	create func(ctx context.Context, input service.CategoryInput) (*domain.Category, error)
	update func(ctx context.Context, id uuid.UUID, input service.CategoryUpdate) (*domain.Category, error)
	delete func(ctx context.Context, id uuid.UUID) error
}

func (s *stubCategoryService) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.list(ctx, activeOnly)
}

func (s *stubCategoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.get(ctx, id)
}

func (s *stubCategoryService) Create(ctx context.Context, input service.CategoryInput) (*domain.Category, error) {
	return s.create(ctx, input)
}

func (s *stubCategoryService) Update(ctx context.Context, id uuid.UUID, input service.CategoryUpdate) (*domain.Category, error) {
	return s.update(ctx, id, input)
}

func (s *stubCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.delete(ctx, id)
}

type stubProductService struct {
	service.ProductService
	list     func(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	featured func(ctx context.Context) ([]*domain.Product, error)
	get      func(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	create   func(ctx context.Context, input service.ProductInput) (*domain.Product, error)
	update   func(ctx context.Context, id uuid.UUID, input service.ProductUpdate) (*domain.Product, error)
	delete   func(ctx context.Context, id uuid.UUID) error
}

func (s *stubProductService) List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	return s.list(ctx, filter)
}

func (s *stubProductService) Featured(ctx context.Context) ([]*domain.Product, error) {
	return s.featured(ctx)
}

func (s *stubProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.get(ctx, id)
}

func (s *stubProductService) Create(ctx context.Context, input service.ProductInput) (*domain.Product, error) {
	return s.create(ctx, input)
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, input service.ProductUpdate) (*domain.Product, error) {
	return s.update(ctx, id, input)
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.delete(ctx, id)
}

type stubContactService struct {
	submit func(ctx context.Context, input service.ContactInput) (*domain.Contact, error)
	list   func(ctx context.Context) ([]*domain.Contact, error)
}

func (s *stubContactService) Submit(ctx context.Context, input service.ContactInput) (*domain.Contact, error) {
	return s.submit(ctx, input)
}

func (s *stubContactService) List(ctx context.Context) ([]*domain.Contact, error) {
	return s.list(ctx)
}

// passThrough stands in for the auth chain in handler tests
func passThrough(next http.Handler) http.Handler { return next }

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ErrorHandlingMiddleware(zap.NewNop()))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
