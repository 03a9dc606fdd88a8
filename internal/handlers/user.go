package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lecturehub/apiserver/internal/auth"
	"github.com/lecturehub/apiserver/internal/services"
	"github.com/lecturehub/apiserver/types"
)

// UserHandler provides profile and password endpoints.
type UserHandler struct {
	userService *services.UserService
	errors      errorWriter
}

func NewUserHandler(userService *services.UserService, exposeErrors bool) *UserHandler {
	return &UserHandler{
		userService: userService,
		errors:      errorWriter{exposeDetail: exposeErrors},
	}
}

// UserRouter registers user routes. Password reset is public.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
	exposeErrors bool,
) {
	handler := NewUserHandler(userService, exposeErrors)

	r.Post("/reset-password", handler.ResetPassword)
	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Get("/profile", handler.GetProfile)
		r.Put("/profile", handler.UpdateProfile)
		r.Put("/change-password", handler.ChangePassword)
	})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	profile, err := h.userService.Profile(r.Context(), identity)
	if err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), identity, req.Username, req.Email)
	if err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Message: "Profile updated successfully", User: profile})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		h.errors.write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}

type ProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ProfileResponse struct {
	Message string        `json:"message"`
	User    types.Profile `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}
