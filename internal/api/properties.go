package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/query"
	"github.com/erazemk/estatedesk/internal/schema"
	"github.com/erazemk/estatedesk/internal/store"
)

// PropertiesHandler handles property listing and CRUD endpoints.
type PropertiesHandler struct {
	responder
	Store *store.Store
}

// List handles GET /api/properties. Without a valid token only public
// statuses are visible.
func (h *PropertiesHandler) List(w http.ResponseWriter, r *http.Request) {
	p := query.FromValues(r.URL.Query())
	if GetClaims(r.Context()) == nil {
		p = p.Public()
	}

	res, err := h.Store.Properties.List(r.Context(), p)
	if err != nil {
		h.serverError(w, r, "failed to list properties", err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Featured handles GET /api/properties/featured.
func (h *PropertiesHandler) Featured(w http.ResponseWriter, r *http.Request) {
	props, err := h.Store.Properties.Featured(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list featured properties", err)
		return
	}
	jsonResponse(w, http.StatusOK, props)
}

// visible hides drafts from anonymous callers.
func visible(r *http.Request, p *model.Property) bool {
	return p != nil && (p.Status != model.StatusDraft || GetClaims(r.Context()) != nil)
}

// Get handles GET /api/properties/{id}.
func (h *PropertiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.Properties.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get property", err)
		return
	}
	if !visible(r, p) {
		notFound(w, "property")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// GetBySlug handles GET /api/properties/slug/{slug}.
func (h *PropertiesHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.Properties.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.serverError(w, r, "failed to get property", err)
		return
	}
	if !visible(r, p) {
		notFound(w, "property")
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

// Create handles POST /api/properties.
func (h *PropertiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.Validate(schema.Property, body); err != nil {
		badInput(w, err)
		return
	}

	var p model.Property
	if err := json.Unmarshal(body, &p); err != nil {
		badInput(w, err)
		return
	}
	if err := normalizeNew(nil, p.Images); err != nil {
		h.writeDocError(w, r, "failed to create property", err)
		return
	}

	created, err := h.Store.Properties.Create(r.Context(), p)
	if err != nil {
		h.writeDocError(w, r, "failed to create property", err)
		return
	}

	slog.Info("property created", "user", GetClaims(r.Context()).Email, "property", created.ID, "slug", created.Slug)
	jsonResponse(w, http.StatusCreated, created)
}

// Update handles PUT /api/properties/{id}. Fields absent from the body
// keep their stored values.
func (h *PropertiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidatePatch(schema.Property, body); err != nil {
		badInput(w, err)
		return
	}

	updated, err := h.Store.Properties.Update(r.Context(), r.PathValue("id"), func(next *model.Property) error {
		before := slices.Clone(next.Images)
		if err := json.Unmarshal(body, next); err != nil {
			return &applyError{err}
		}
		return normalizeNew(before, next.Images)
	})
	if err != nil {
		h.writeDocError(w, r, "failed to update property", err)
		return
	}
	if updated == nil {
		notFound(w, "property")
		return
	}

	slog.Info("property updated", "user", GetClaims(r.Context()).Email, "property", updated.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/properties/{id}.
func (h *PropertiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := h.Store.Properties.Delete(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "failed to delete property", err)
		return
	}
	if !ok {
		notFound(w, "property")
		return
	}

	slog.Info("property deleted", "user", GetClaims(r.Context()).Email, "property", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "property deleted"})
}

// Image handles GET /api/properties/{id}/images/{index}.
func (h *PropertiesHandler) Image(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.Properties.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get property", err)
		return
	}
	if !visible(r, p) {
		notFound(w, "property")
		return
	}

	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || i < 0 || i >= len(p.Images) {
		notFound(w, "image")
		return
	}
	serveImage(w, r, p.Images[i])
}
