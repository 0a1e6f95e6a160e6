package transport

import (
	"net/http"

	"eterna/internal/domain"
	"eterna/internal/middleware"
	"eterna/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ContactRequest is a request to join the WhatsApp group
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"required,min=5,max=20"`
	Email   string `json:"email" validate:"omitempty,email"`
	Message string `json:"message" validate:"max=1000"`
}

func (r *ContactRequest) normalize() {
	trimPtr(&r.Name)
	trimPtr(&r.Phone)
	r.Email = service.NormalizeEmail(r.Email)
	trimPtr(&r.Message)
}

// ContactResponse carries a stored contact
type ContactResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Contact *domain.Contact `json:"contact"`
}

// ContactsResponse carries every contact
type ContactsResponse struct {
	Success  bool              `json:"success"`
	Contacts []*domain.Contact `json:"contacts"`
}

// ContactHandler handles HTTP requests for storefront contacts
type ContactHandler struct {
	contactService service.ContactService
	logger         *zap.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// RegisterRoutes registers all contact routes. limit guards the public form.
func (h *ContactHandler) RegisterRoutes(r chi.Router, requireAuth, limit func(http.Handler) http.Handler) {
	r.Route("/api/contact", func(r chi.Router) {
		r.With(limit).Post("/whatsapp-group", h.JoinWhatsAppGroup)
		r.With(requireAuth).Get("/", h.List)
	})
}

// JoinWhatsAppGroup stores a new contact
func (h *ContactHandler) JoinWhatsAppGroup(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	contact, err := h.contactService.Submit(r.Context(), service.ContactInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to store contact")
		return
	}

	h.logger.Info("Contact stored", zap.String("contact_id", contact.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, ContactResponse{
		Success: true,
		Message: "Successfully joined WhatsApp group",
		Contact: contact,
	})
}

// List returns every contact, newest first
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contactService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list contacts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ContactsResponse{Success: true, Contacts: contacts})
}
