// internal/handler/auth.go
package handler

import (
	"net/http"

	"github.com/dangerclosesec/partnerhub/internal/middleware"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginResponse struct {
	BaseResponse
	User    UserView `json:"user"`
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
}

type TokenResponse struct {
	BaseResponse
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// PublicRoutes mounts the endpoints that issue tokens.
func (h *AuthHandler) PublicRoutes(r chi.Router) {
	r.Post("/login", h.LoginHandler)
	r.Post("/refresh", h.RefreshHandler)
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	// Parses the request body
	var input service.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	output, err := h.authService.Login(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         newUserView(output.User),
		Access:       output.Access,
		Refresh:      output.Refresh,
	})
}

func (h *AuthHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var input service.RefreshInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, TokenResponse{
		BaseResponse: BaseResponse{Ok: true},
		Access:       pair.Access,
		Refresh:      pair.Refresh,
	})
}

// MeHandler returns the caller with the roles and permissions granted
// through their departments.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	me, err := h.authService.Me(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newMeView(me))
}
