package api

import (
	"encoding/json"
	"net/http"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/schema"
	"github.com/erazemk/estatedesk/internal/store"
)

// HeroHandler handles home page slide endpoints.
type HeroHandler struct {
	responder
	Store *store.Store
}

func visibleSlide(r *http.Request, s *model.HeroSlide) bool {
	return s != nil && (s.Active || GetClaims(r.Context()) != nil)
}

// List handles GET /api/hero-slides. Inactive slides are listed only for
// authenticated callers that ask for them.
func (h *HeroHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := queryBool(r, "includeInactive") && GetClaims(r.Context()) != nil

	slides, err := h.Store.Hero.List(r.Context(), includeInactive)
	if err != nil {
		h.serverError(w, r, "failed to list hero slides", err)
		return
	}
	jsonResponse(w, http.StatusOK, slides)
}

// Get handles GET /api/hero-slides/{id}.
func (h *HeroHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Hero.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get hero slide", err)
		return
	}
	if !visibleSlide(r, s) {
		notFound(w, "hero slide")
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Image handles GET /api/hero-slides/{id}/image.
func (h *HeroHandler) Image(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Hero.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get hero slide", err)
		return
	}
	if !visibleSlide(r, s) {
		notFound(w, "image")
		return
	}
	serveImage(w, r, s.Image)
}

// Create handles POST /api/hero-slides.
func (h *HeroHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.Validate(schema.HeroSlide, body); err != nil {
		badInput(w, err)
		return
	}

	var s model.HeroSlide
	if err := json.Unmarshal(body, &s); err != nil {
		badInput(w, err)
		return
	}
	if err := normalizeOne("", &s.Image); err != nil {
		h.writeDocError(w, r, "failed to create hero slide", err)
		return
	}

	created, err := h.Store.Hero.Create(r.Context(), s)
	if err != nil {
		h.writeDocError(w, r, "failed to create hero slide", err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// Update handles PUT /api/hero-slides/{id}.
func (h *HeroHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidatePatch(schema.HeroSlide, body); err != nil {
		badInput(w, err)
		return
	}

	updated, err := h.Store.Hero.Update(r.Context(), r.PathValue("id"), func(next *model.HeroSlide) error {
		before := next.Image
		if err := json.Unmarshal(body, next); err != nil {
			return &applyError{err}
		}
		return normalizeOne(before, &next.Image)
	})
	if err != nil {
		h.writeDocError(w, r, "failed to update hero slide", err)
		return
	}
	if updated == nil {
		notFound(w, "hero slide")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/hero-slides/{id}.
func (h *HeroHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.Hero.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to delete hero slide", err)
		return
	}
	if !ok {
		notFound(w, "hero slide")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "hero slide deleted"})
}
