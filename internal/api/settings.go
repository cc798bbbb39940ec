package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/schema"
	"github.com/erazemk/estatedesk/internal/store"
)

// SettingsHandler handles the site settings singleton.
type SettingsHandler struct {
	responder
	Store *store.Store
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Settings.Get(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to get settings", err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Put handles PUT /api/settings.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidatePatch(schema.Settings, body); err != nil {
		badInput(w, err)
		return
	}

	s, err := h.Store.Settings.Put(r.Context(), func(next *model.Settings) error {
		if err := json.Unmarshal(body, next); err != nil {
			return &applyError{err}
		}
		return nil
	})
	if err != nil {
		h.writeDocError(w, r, "failed to save settings", err)
		return
	}

	slog.Info("settings updated", "user", GetClaims(r.Context()).Email)
	jsonResponse(w, http.StatusOK, s)
}
