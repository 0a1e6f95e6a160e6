package transport

import (
	"errors"
	"net/http"

	"eterna/internal/middleware"
	"eterna/internal/service"
	"eterna/internal/storage"

	"go.uber.org/zap"
)

const (
	msgInvalidBody      = "Invalid request body"
	msgCategoryNotFound = "Category not found"
	msgProductNotFound  = "Product not found"
)

// respondServiceError maps service failures onto status codes. Anything
// unexpected is logged and reported as a generic server error.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	var inUse *service.CategoryInUseError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrAdminNotFound):
		middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, service.ErrEmailTaken):
		middleware.RespondWithError(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, service.ErrDemoAdminReadOnly):
		middleware.RespondWithError(w, http.StatusBadRequest, "Demo admin credentials cannot be changed")
	case errors.Is(err, service.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, msgCategoryNotFound)
	case errors.Is(err, service.ErrCategoryExists):
		middleware.RespondWithError(w, http.StatusBadRequest, "Category already exists")
	case errors.Is(err, service.ErrCategoryNameUsed):
		middleware.RespondWithError(w, http.StatusBadRequest, "Category name already exists")
	case errors.As(err, &inUse):
		middleware.RespondWithError(w, http.StatusBadRequest, inUse.Error())
	case errors.Is(err, service.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
	case errors.Is(err, service.ErrTooManyImages):
		middleware.RespondWithError(w, http.StatusBadRequest, "Too many images")
	case errors.Is(err, service.ErrPhoneRegistered):
		middleware.RespondWithError(w, http.StatusBadRequest, "Phone number already registered")
	case errors.Is(err, storage.ErrFileTooLarge):
		middleware.RespondWithError(w, http.StatusBadRequest, "File too large. Maximum size is 5MB")
	case errors.Is(err, storage.ErrUnsupportedType):
		middleware.RespondWithError(w, http.StatusBadRequest, "Only image files are allowed")
	default:
		logger.Error(msg, append(fields, zap.Error(err))...)
		middleware.RespondWithError(w, http.StatusInternalServerError, middleware.ServerErrorMessage)
		return
	}

	logger.Debug(msg, append(fields, zap.Error(err))...)
}

// normalizer is implemented by requests that clean their input before validation
type normalizer interface {
	normalize()
}

// decodeRequest decodes and validates a JSON body, writing the error
// response itself when the body is unusable.
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := decodeJSON(r, v); err != nil {
		logger.Debug("Request body rejected", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return validateRequest(w, r, logger, v)
}

func validateRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if n, ok := v.(normalizer); ok {
		n.normalize()
	}
	if err := middleware.ValidateRequest(v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}
