package http

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ovasylenko/contacthub/internal/service"
	"github.com/ovasylenko/contacthub/pkg/httputil"
	"github.com/ovasylenko/contacthub/pkg/validator"
)

// maxBodyBytes caps JSON request bodies at 1MB.
const maxBodyBytes = 1 << 20

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=6,max=30"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the JSON request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest is the JSON request body for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// EmailRequest is the JSON request body for verification and reset requests.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the JSON request body for password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=30"`
}

// --- Handlers ---

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input := service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}

	user, err := h.service.Register(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tokens, err := h.service.Login(r.Context(), req.Username, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tokens})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, accessToken, err := h.service.RotateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"access_token": accessToken,
		"token_type":   "bearer",
	}})
}

// Logout handles POST /api/auth/logout. It revokes the refresh token and
// deny-lists the presented access token for its remaining lifetime.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if token, ok := TokenFromContext(r.Context()); ok {
		if err := h.service.RevokeAccessToken(r.Context(), token); err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "logged out",
	}})
}

// ConfirmEmail handles GET /api/auth/confirm/{token}
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.service.ConfirmEmail(r.Context(), token); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "email confirmed",
	}})
}

// RequestVerification handles POST /api/auth/request-verification
func (h *AuthHandler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.RequestVerification(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "if the email exists and is unverified, a confirmation link has been sent",
	}})
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "if the email exists, a password reset link has been sent",
	}})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "password has been reset successfully",
	}})
}

// --- Helpers ---

// decodeBody reads, parses, and validates a JSON request body. It writes the
// error response itself and returns false when the caller should bail out.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}

	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}

	return true
}

// clientIP extracts the originating address, preferring X-Forwarded-For when
// the service runs behind a proxy. Only the first hop of the forwarded chain
// is kept.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
