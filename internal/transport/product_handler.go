package transport

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"eterna/internal/domain"
	"eterna/internal/middleware"
	"eterna/internal/repository"
	"eterna/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const multipartMemory = 8 << 20

// flexBool accepts JSON booleans and the strings "true" and "false"
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false":
		*b = false
	default:
		return errors.New("featured must be boolean")
	}
	return nil
}

// ProductRequest is the create and update payload. On create the name,
// description, price and category are required.
type ProductRequest struct {
	Name        *string          `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string          `json:"description" validate:"omitnil,min=1,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" validate:"omitnil,uuid"`
	Images      *[]string        `json:"images" validate:"omitnil,max=10,dive,max=500"`
	Ingredients *string          `json:"ingredients" validate:"omitnil,max=1000"`
	Usage       *string          `json:"usage" validate:"omitnil,max=500"`
	Featured    *flexBool        `json:"featured"`
	Status      *string          `json:"status" validate:"omitnil,oneof=active inactive"`
}

func (r *ProductRequest) normalize() {
	trimPtr(r.Name)
	trimPtr(r.Description)
	trimPtr(r.Category)
	trimPtr(r.Ingredients)
	trimPtr(r.Usage)
	trimPtr(r.Status)
}

// check reports the rules the validator tags cannot express
func (r *ProductRequest) check(create bool) []middleware.ValidationError {
	var errs []middleware.ValidationError
	if create {
		if r.Name == nil {
			errs = append(errs, middleware.ValidationError{Field: "name", Message: "This field is required"})
		}
		if r.Description == nil {
			errs = append(errs, middleware.ValidationError{Field: "description", Message: "This field is required"})
		}
		if r.Price == nil {
			errs = append(errs, middleware.ValidationError{Field: "price", Message: "This field is required"})
		}
		if r.Category == nil {
			errs = append(errs, middleware.ValidationError{Field: "category", Message: "Valid category ID is required"})
		}
	}
	if r.Price != nil && r.Price.IsNegative() {
		errs = append(errs, middleware.ValidationError{Field: "price", Message: "Price must be a positive number"})
	}
	return errs
}

// ProductResponse carries a single product
type ProductResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Product *domain.Product `json:"product"`
}

// ProductsResponse carries a page of products
type ProductsResponse struct {
	Success    bool              `json:"success"`
	Products   []*domain.Product `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

// FeaturedResponse carries the featured products
type FeaturedResponse struct {
	Success  bool              `json:"success"`
	Products []*domain.Product `json:"products"`
}

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	productService service.ProductService
	maxFileBytes   int64
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler. maxFileBytes is the limit
// for a single image; a multipart request may carry up to
// domain.MaxProductImages of them.
func NewProductHandler(productService service.ProductService, maxFileBytes int64, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		maxFileBytes:   maxFileBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/featured", h.Featured)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// ParseProductFilter reads listing filters from the query string. Bad paging
// values fall back to defaults; bad filters are validation errors.
func ParseProductFilter(q url.Values) (domain.ProductFilter, []middleware.ValidationError) {
	var errs []middleware.ValidationError
	filter := domain.ProductFilter{
		Page:     atoiOr(q.Get("page"), service.DefaultPage),
		Limit:    atoiOr(q.Get("limit"), service.DefaultLimit),
		Featured: q.Get("featured") == "true",
		Search:   strings.TrimSpace(q.Get("search")),
	}

	if category := strings.TrimSpace(q.Get("category")); category != "" && category != "all" {
		id, err := uuid.Parse(category)
		if err != nil {
			errs = append(errs, middleware.ValidationError{Field: "category", Message: "Invalid category id"})
		} else {
			filter.CategoryID = &id
		}
	}

	switch status := q.Get("status"); status {
	case "":
		filter.Status = domain.StatusActive
	case domain.StatusActive, domain.StatusInactive:
		filter.Status = status
	case "all":
		filter.Status = ""
	default:
		errs = append(errs, middleware.ValidationError{Field: "status", Message: "Must be one of: active, inactive, all"})
	}

	if sortBy := q.Get("sort"); sortBy != "" {
		if !repository.IsSortField(sortBy) {
			errs = append(errs, middleware.ValidationError{Field: "sort", Message: "Must be one of: created_at, name, price"})
		}
		filter.SortBy = sortBy
	}

	switch order := strings.ToLower(q.Get("order")); order {
	case "", "asc", "desc":
		filter.SortOrder = order
	default:
		errs = append(errs, middleware.ValidationError{Field: "order", Message: "Must be one of: asc, desc"})
	}

	return service.NormalizeFilter(filter), errs
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// List returns one page of the catalog
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, errs := ParseProductFilter(r.URL.Query())
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	page, err := h.productService.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductsResponse{
		Success:    true,
		Products:   page.Products,
		Pagination: page.Pagination,
	})
}

// Featured returns the featured products for the storefront
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.Featured(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list featured products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, FeaturedResponse{Success: true, Products: products})
}

// Get returns one product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get product", zap.String("product_id", id.String()))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Success: true, Product: product})
}

// Create adds a product from JSON or multipart form data
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, uploads, ok := h.readProduct(w, r, true)
	if !ok {
		return
	}

	categoryID := uuid.MustParse(*req.Category)
	input := service.ProductInput{
		Name:        *req.Name,
		Description: *req.Description,
		Price:       *req.Price,
		CategoryID:  categoryID,
		Uploads:     uploads,
		Status:      deref(req.Status),
		Ingredients: deref(req.Ingredients),
		Usage:       deref(req.Usage),
	}
	if req.Images != nil {
		input.Images = *req.Images
	}
	if req.Featured != nil {
		input.Featured = bool(*req.Featured)
	}

	product, err := h.productService.Create(r.Context(), input)
	if err != nil {
		h.respondMutationError(w, err, "Failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, ProductResponse{
		Success: true,
		Message: "Product created successfully",
		Product: product,
	})
}

// Update changes the supplied product fields
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	req, uploads, ok := h.readProduct(w, r, false)
	if !ok {
		return
	}

	update := service.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      req.Images,
		Ingredients: req.Ingredients,
		Usage:       req.Usage,
		Status:      req.Status,
		Uploads:     uploads,
	}
	if req.Category != nil {
		categoryID := uuid.MustParse(*req.Category)
		update.CategoryID = &categoryID
	}
	if req.Featured != nil {
		featured := bool(*req.Featured)
		update.Featured = &featured
	}

	product, err := h.productService.Update(r.Context(), id, update)
	if err != nil {
		h.respondMutationError(w, err, "Failed to update product", zap.String("product_id", id.String()))
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{
		Success: true,
		Message: "Product updated successfully",
		Product: product,
	})
}

// Delete removes a product and its stored images
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete product", zap.String("product_id", id.String()))
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, middleware.Response{
		Success: true,
		Message: "Product deleted successfully",
	})
}

// respondMutationError reports an unknown category as a bad request since
// the client supplied it in the body.
func (h *ProductHandler) respondMutationError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	if errors.Is(err, service.ErrCategoryNotFound) {
		middleware.RespondWithError(w, http.StatusBadRequest, msgCategoryNotFound)
		return
	}
	respondServiceError(w, h.logger, err, msg, fields...)
}

// readProduct decodes and validates a product payload from either JSON or
// multipart form data.
func (h *ProductHandler) readProduct(w http.ResponseWriter, r *http.Request, create bool) (*ProductRequest, []service.ImageSource, bool) {
	req := &ProductRequest{}
	var uploads []service.ImageSource

	if isMultipart(r) {
		// Per-file size is enforced by the image store
		if h.maxFileBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, int64(domain.MaxProductImages)*h.maxFileBytes+1<<20)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			h.logger.Debug("Multipart body rejected", zap.Error(err))
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				middleware.RespondWithError(w, http.StatusBadRequest, "File too large. Maximum size is 5MB")
				return nil, nil, false
			}
			middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidBody)
			return nil, nil, false
		}
		if err := productFromForm(r.MultipartForm, req); err != nil {
			h.logger.Debug("Multipart fields rejected", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidBody)
			return nil, nil, false
		}
		uploads = imageSources(r.MultipartForm.File["images"])
	} else if err := decodeJSON(r, req); err != nil {
		h.logger.Debug("Request body rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidBody)
		return nil, nil, false
	}

	if !validateRequest(w, r, h.logger, req) {
		return nil, nil, false
	}
	if errs := req.check(create); len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return nil, nil, false
	}

	return req, uploads, true
}

// productFromForm copies the present form fields into req
func productFromForm(form *multipart.Form, req *ProductRequest) error {
	value := func(key string) *string {
		values, ok := form.Value[key]
		if !ok || len(values) == 0 {
			return nil
		}
		v := values[0]
		return &v
	}

	req.Name = value("name")
	req.Description = value("description")
	req.Category = value("category")
	req.Ingredients = value("ingredients")
	req.Usage = value("usage")
	req.Status = value("status")

	if raw := value("price"); raw != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*raw))
		if err != nil {
			return err
		}
		req.Price = &price
	}

	if raw := value("featured"); raw != nil {
		var featured flexBool
		if err := featured.UnmarshalJSON([]byte(strings.TrimSpace(*raw))); err != nil {
			return err
		}
		req.Featured = &featured
	}

	if values, ok := form.Value["images"]; ok {
		images := []string{}
		if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
			if err := json.Unmarshal([]byte(values[0]), &images); err != nil {
				return err
			}
		} else {
			for _, v := range values {
				if v = strings.TrimSpace(v); v != "" {
					images = append(images, v)
				}
			}
		}
		req.Images = &images
	}

	return nil
}

func imageSources(files []*multipart.FileHeader) []service.ImageSource {
	sources := make([]service.ImageSource, 0, len(files))
	for _, fh := range files {
		sources = append(sources, func() (io.ReadCloser, error) {
			return fh.Open()
		})
	}
	return sources
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
