package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/TravelmateGo/internal/service"
	"github.com/utafrali/TravelmateGo/internal/token"
	apperrors "github.com/utafrali/TravelmateGo/pkg/errors"
	"github.com/utafrali/TravelmateGo/pkg/httputil"
	"github.com/utafrali/TravelmateGo/pkg/tracing"
	"github.com/utafrali/TravelmateGo/pkg/validator"
)

// refreshCookieName is the cookie carrying the refresh credential. The
// credential never appears in JSON responses.
const refreshCookieName = "refreshToken"

// refreshCookieMaxAge matches the refresh credential TTL (7 days).
const refreshCookieMaxAge = 604800

// maxBodyBytes caps request bodies on auth endpoints.
const maxBodyBytes = 1 << 20

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.MemberService
	tokens  *token.Manager
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.MemberService, tokens *token.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, tokens: tokens, logger: logger}
}

// --- Request DTOs ---

// SignupRequest is the JSON request body for member registration.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// LoginRequest is the JSON request body for member login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Response types ---

// LoginResponse carries the access credential; the refresh credential
// travels only in the cookie.
type LoginResponse struct {
	UserNumber  int    `json:"user_number"`
	AccessToken string `json:"access_token"`
}

// --- Handlers ---

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	member, err := h.service.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: member})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	member, pair, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	setRefreshCookie(w, pair.RefreshToken)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: LoginResponse{
		UserNumber:  member.UserNumber,
		AccessToken: pair.AccessToken,
	}})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("refresh token cookie is missing"), h.logger)
		return
	}

	ctx, span := tracing.Tracer("member.http").Start(r.Context(), "AuthHandler.Refresh")
	defer span.End()

	pair, err := h.service.Refresh(ctx, cookie.Value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	userNumber, err := h.tokens.UserNumber(pair.AccessToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	span.SetAttributes(attribute.Int("member.user_number", userNumber))

	setRefreshCookie(w, pair.RefreshToken)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: LoginResponse{
		UserNumber:  userNumber,
		AccessToken: pair.AccessToken,
	}})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accessToken := AccessTokenFromContext(r.Context())

	var refreshToken string
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	if err := h.service.Logout(r.Context(), accessToken, refreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	expireRefreshCookie(w)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "logged out",
	}})
}

// --- Cookie helpers ---

func setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   refreshCookieMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
