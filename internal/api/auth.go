package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/estatedesk/internal/auth"
	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	responder
	Store  *store.Store
	Issuer *auth.Issuer
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"max=200"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin editor"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.Validate(req); err != nil {
		badInput(w, err)
		return
	}

	user, err := h.Store.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.serverError(w, r, "internal error", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", user.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Issuer.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		h.serverError(w, r, "failed to generate token", err)
		return
	}

	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	jsonResponse(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Register handles POST /api/auth/register. The first account may be
// created by anyone and is always an admin; after that only an admin may
// register users.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.Store.Users.Count(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to count users", err)
		return
	}

	bootstrap := n == 0
	if bootstrap {
		req.Role = model.RoleAdmin
	} else {
		claims := GetClaims(r.Context())
		if claims == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		if req.Role == "" {
			req.Role = model.RoleEditor
		}
	}

	if err := model.Validate(req); err != nil {
		badInput(w, err)
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		badInput(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(w, r, "failed to hash password", err)
		return
	}

	var user *model.User
	if bootstrap {
		user, err = h.Store.Users.CreateFirst(r.Context(), req.Email, req.Name, string(hash))
	} else {
		user, err = h.Store.Users.Create(r.Context(), req.Email, req.Name, string(hash), req.Role)
	}
	if err != nil {
		if errors.Is(err, store.ErrBootstrapClosed) {
			jsonError(w, http.StatusConflict, "first account already created")
			return
		}
		if errors.Is(err, store.ErrConflict) {
			jsonError(w, http.StatusConflict, "email already registered")
			return
		}
		h.writeError(w, r, "failed to create user", err)
		return
	}

	token, err := h.Issuer.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		h.serverError(w, r, "failed to generate token", err)
		return
	}

	slog.Info("user registered", "new_user", user.Email, "role", user.Role, "bootstrap", bootstrap)
	jsonResponse(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	user, err := h.Store.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		h.serverError(w, r, "failed to get user", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.Validate(req); err != nil {
		badInput(w, err)
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		badInput(w, err)
		return
	}

	user, err := h.Store.Users.Get(r.Context(), claims.UserID)
	if err != nil {
		h.serverError(w, r, "internal error", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(w, r, "failed to hash password", err)
		return
	}

	if _, err := h.Store.Users.UpdatePassword(r.Context(), claims.UserID, string(hash)); err != nil {
		h.serverError(w, r, "failed to update password", err)
		return
	}

	slog.Info("user changed own password", "user", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	expires := time.Now().Add(h.Issuer.TTL())
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := h.Store.Tokens.Revoke(r.Context(), claims.ID, expires); err != nil {
		h.serverError(w, r, "failed to revoke token", err)
		return
	}

	slog.Info("user logged out", "user", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
