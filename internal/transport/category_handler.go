package transport

import (
	"net/http"

	"eterna/internal/domain"
	"eterna/internal/middleware"
	"eterna/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCategoryRequest represents the category creation payload
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r *CreateCategoryRequest) normalize() {
	trimPtr(&r.Name)
	trimPtr(&r.Description)
}

// UpdateCategoryRequest represents a partial category update
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,max=500"`
	Status      *string `json:"status" validate:"omitnil,oneof=active inactive"`
}

func (r *UpdateCategoryRequest) normalize() {
	trimPtr(r.Name)
	trimPtr(r.Description)
}

// CategoryResponse carries a single category
type CategoryResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Category *domain.Category `json:"category"`
}

// CategoriesResponse carries a category list
type CategoriesResponse struct {
	Success    bool               `json:"success"`
	Categories []*domain.Category `json:"categories"`
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListActive)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/all", h.ListAll)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})

		r.Get("/{id}", h.Get)
	})
}

// ListActive returns the active categories for the storefront
func (h *CategoryHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListAll returns every category for the back-office
func (h *CategoryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	categories, err := h.categoryService.List(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoriesResponse{Success: true, Categories: categories})
}

// Get returns one category
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get category", zap.String("category_id", id.String()))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoryResponse{Success: true, Category: category})
}

// Create adds a category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category, err := h.categoryService.Create(r.Context(), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create category", zap.String("name", req.Name))
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, CategoryResponse{
		Success:  true,
		Message:  "Category created successfully",
		Category: category,
	})
}

// Update changes the supplied category fields
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}

	var req UpdateCategoryRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, service.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update category", zap.String("category_id", id.String()))
		return
	}

	h.logger.Info("Category updated", zap.String("category_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, CategoryResponse{
		Success:  true,
		Message:  "Category updated successfully",
		Category: category,
	})
}

// Delete removes a category without products
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete category", zap.String("category_id", id.String()))
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, middleware.Response{
		Success: true,
		Message: "Category deleted successfully",
	})
}
