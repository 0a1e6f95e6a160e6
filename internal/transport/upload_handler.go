package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"eterna/internal/middleware"
	"eterna/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UploadResponse lists the stored files
type UploadResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Files   []*storage.StoredFile `json:"files"`
}

// UploadHandler stores images ahead of a product write
type UploadHandler struct {
	images   storage.ImageStore
	maxFiles int
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(images storage.ImageStore, maxFiles int, maxBytes int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		images:   images,
		maxFiles: maxFiles,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// RegisterRoutes registers the upload route
func (h *UploadHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/api/upload", h.Upload)
}

// Upload stores up to maxFiles images sent under the "images" field
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxFiles)*h.maxBytes+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.logger.Debug("Upload body rejected", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusBadRequest, "File too large. Maximum size is 5MB")
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > h.maxFiles {
		middleware.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Too many files. Maximum is %d", h.maxFiles))
		return
	}

	stored := make([]*storage.StoredFile, 0, len(files))
	for _, source := range imageSources(files) {
		f, err := source()
		if err != nil {
			h.discard(r.Context(), stored)
			respondServiceError(w, h.logger, err, "Failed to open upload")
			return
		}
		file, err := h.images.Save(r.Context(), f)
		f.Close()
		if err != nil {
			h.discard(r.Context(), stored)
			respondServiceError(w, h.logger, err, "Failed to store upload")
			return
		}
		stored = append(stored, file)
	}

	h.logger.Info("Files uploaded", zap.Int("count", len(stored)))
	middleware.RespondWithJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "Files uploaded successfully",
		Files:   stored,
	})
}

// discard removes files stored earlier in a failed batch
func (h *UploadHandler) discard(ctx context.Context, files []*storage.StoredFile) {
	for _, f := range files {
		if err := h.images.Delete(ctx, f.Path); err != nil {
			h.logger.Warn("Failed to remove partial upload", zap.String("path", f.Path), zap.Error(err))
		}
	}
}
