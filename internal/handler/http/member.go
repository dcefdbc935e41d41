package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/TravelmateGo/internal/service"
	apperrors "github.com/utafrali/TravelmateGo/pkg/errors"
	"github.com/utafrali/TravelmateGo/pkg/httputil"
	"github.com/utafrali/TravelmateGo/pkg/validator"
)

// MemberHandler handles HTTP requests for member profile endpoints.
type MemberHandler struct {
	service *service.MemberService
	logger  *slog.Logger
}

// NewMemberHandler creates a new member HTTP handler.
func NewMemberHandler(svc *service.MemberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{service: svc, logger: logger}
}

// UpdateProfileRequest is the JSON request body for updating a member profile.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// GetProfile handles GET /api/v1/members/me
func (h *MemberHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	member, err := h.service.GetProfile(r.Context(), principal.UserNumber)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: member})
}

// UpdateProfile handles PUT /api/v1/members/me
func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	member, err := h.service.UpdateProfile(r.Context(), principal.UserNumber, service.UpdateProfileInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: member})
}
