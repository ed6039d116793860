package http

import (
	"log/slog"
	"net/http"

	"github.com/ovasylenko/contacthub/internal/service"
	apperrors "github.com/ovasylenko/contacthub/pkg/errors"
	"github.com/ovasylenko/contacthub/pkg/httputil"
)

// UserHandler handles HTTP requests for user profile endpoints.
type UserHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// UpdateAvatar handles PATCH /api/users/avatar. Restricted to admins by the
// route's role gate.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	updated, err := h.service.UpdateAvatar(r.Context(), user.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}

// ModeratorArea handles GET /api/users/moderator. Reachable by moderators and
// admins, each listed explicitly.
func (h *UserHandler) ModeratorArea(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "welcome, " + user.Username + ": moderator access granted",
	}})
}

// AdminArea handles GET /api/users/admin. Reachable by admins only.
func (h *UserHandler) AdminArea(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "welcome, " + user.Username + ": admin access granted",
	}})
}
