package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ovasylenko/contacthub/internal/service"
	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
	"github.com/ovasylenko/contacthub/pkg/httputil"
	"github.com/ovasylenko/contacthub/pkg/pagination"
)

// defaultBirthdayWindow is the lookahead used when ?days= is absent.
const defaultBirthdayWindow = 7

// ContactHandler handles HTTP requests for contact endpoints.
type ContactHandler struct {
	service *service.ContactService
	logger  *slog.Logger
}

// NewContactHandler creates a new contact HTTP handler.
func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// ContactRequest is the JSON request body for creating a contact.
type ContactRequest struct {
	FirstName      string `json:"first_name" validate:"required,min=1,max=50"`
	LastName       string `json:"last_name" validate:"required,min=1,max=50"`
	Email          string `json:"email" validate:"omitempty,email"`
	PhoneNumber    string `json:"phone_number" validate:"omitempty,max=20"`
	Birthday       string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	AdditionalData string `json:"additional_data" validate:"omitempty,max=255"`
}

// UpdateContactRequest is the JSON request body for a partial contact update.
type UpdateContactRequest struct {
	FirstName      *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName       *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Email          *string `json:"email" validate:"omitempty,email"`
	PhoneNumber    *string `json:"phone_number" validate:"omitempty,max=20"`
	Birthday       *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	AdditionalData *string `json:"additional_data" validate:"omitempty,max=255"`
}

// --- Handlers ---

// Create handles POST /api/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	var req ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := service.ContactInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Birthday:       parseBirthday(req.Birthday),
		AdditionalData: req.AdditionalData,
	}

	contact, err := h.service.Create(r.Context(), user.ID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: contact})
}

// Get handles GET /api/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	contact, err := h.service.Get(r.Context(), user.ID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: contact})
}

// List handles GET /api/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	params := pagination.FromRequest(r)

	result, err := h.service.List(r.Context(), user.ID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Update handles PATCH /api/contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := service.UpdateContactInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		AdditionalData: req.AdditionalData,
	}
	if req.Birthday != nil {
		input.Birthday = parseBirthday(*req.Birthday)
	}

	contact, err := h.service.Update(r.Context(), user.ID, id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: contact})
}

// Delete handles DELETE /api/contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"id":     id.String(),
		"status": "deleted",
	}})
}

// Search handles GET /api/contacts/search?q=
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	query := r.URL.Query().Get("q")
	params := pagination.FromRequest(r)

	result, err := h.service.Search(r.Context(), user.ID, query, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// UpcomingBirthdays handles GET /api/contacts/upcoming-birthdays?days=7
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	days := defaultBirthdayWindow
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("days must be an integer"), h.logger)
			return
		}
		days = v
	}

	contacts, err := h.service.UpcomingBirthdays(r.Context(), user.ID, days)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: contacts})
}

// parseBirthday converts a validated YYYY-MM-DD string to a time, returning
// nil for the empty string.
func parseBirthday(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
