package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/estatedesk/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	responder
	Store *store.Store
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.Users.List(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list users", err)
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Prevent self-deletion.
	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	ok, err := h.Store.Users.Delete(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "failed to delete user", err)
		return
	}
	if !ok {
		notFound(w, "user")
		return
	}

	slog.Info("user deleted", "user", claims.Email, "deleted_user", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
