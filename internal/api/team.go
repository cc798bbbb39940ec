package api

import (
	"encoding/json"
	"net/http"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/schema"
	"github.com/erazemk/estatedesk/internal/store"
)

// TeamHandler handles team member endpoints.
type TeamHandler struct {
	responder
	Store *store.Store
}

// List handles GET /api/team.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.Team.List(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list team members", err)
		return
	}
	jsonResponse(w, http.StatusOK, members)
}

// Get handles GET /api/team/{id}.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.Team.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get team member", err)
		return
	}
	if m == nil {
		notFound(w, "team member")
		return
	}
	jsonResponse(w, http.StatusOK, m)
}

// Photo handles GET /api/team/{id}/photo.
func (h *TeamHandler) Photo(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.Team.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get team member", err)
		return
	}
	if m == nil || m.Photo == "" {
		notFound(w, "image")
		return
	}
	serveImage(w, r, m.Photo)
}

// Create handles POST /api/team.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.Validate(schema.TeamMember, body); err != nil {
		badInput(w, err)
		return
	}

	var m model.TeamMember
	if err := json.Unmarshal(body, &m); err != nil {
		badInput(w, err)
		return
	}
	if err := normalizeOne("", &m.Photo); err != nil {
		h.writeDocError(w, r, "failed to create team member", err)
		return
	}

	created, err := h.Store.Team.Create(r.Context(), m)
	if err != nil {
		h.writeDocError(w, r, "failed to create team member", err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// Update handles PUT /api/team/{id}.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidatePatch(schema.TeamMember, body); err != nil {
		badInput(w, err)
		return
	}

	updated, err := h.Store.Team.Update(r.Context(), r.PathValue("id"), func(next *model.TeamMember) error {
		before := next.Photo
		if err := json.Unmarshal(body, next); err != nil {
			return &applyError{err}
		}
		return normalizeOne(before, &next.Photo)
	})
	if err != nil {
		h.writeDocError(w, r, "failed to update team member", err)
		return
	}
	if updated == nil {
		notFound(w, "team member")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/team/{id}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.Team.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to delete team member", err)
		return
	}
	if !ok {
		notFound(w, "team member")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "team member deleted"})
}
