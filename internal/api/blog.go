package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/schema"
	"github.com/erazemk/estatedesk/internal/store"
)

// BlogHandler handles blog endpoints.
type BlogHandler struct {
	responder
	Store *store.Store
}

func publicPost(r *http.Request, b *model.BlogPost) bool {
	return b != nil && (b.Published || GetClaims(r.Context()) != nil)
}

// List handles GET /api/blog.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := store.BlogQuery{
		IncludeUnpublished: queryBool(r, "includeUnpublished") && GetClaims(r.Context()) != nil,
		Tag:                r.URL.Query().Get("tag"),
		Page:               queryInt(r, "page"),
		Limit:              queryInt(r, "limit"),
	}

	res, err := h.Store.Blog.List(r.Context(), q)
	if err != nil {
		h.serverError(w, r, "failed to list blog posts", err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Get handles GET /api/blog/{id}.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.Blog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get blog post", err)
		return
	}
	if !publicPost(r, b) {
		notFound(w, "blog post")
		return
	}
	jsonResponse(w, http.StatusOK, b)
}

// GetBySlug handles GET /api/blog/slug/{slug}.
func (h *BlogHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.Blog.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.serverError(w, r, "failed to get blog post", err)
		return
	}
	if !publicPost(r, b) {
		notFound(w, "blog post")
		return
	}
	jsonResponse(w, http.StatusOK, b)
}

// Nested dispatches GET /api/blog/slug/{slug} and GET /api/blog/{id}/cover.
func (h *BlogHandler) Nested(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "slug":
		r.SetPathValue("slug", second)
		h.GetBySlug(w, r)
	case second == "cover":
		r.SetPathValue("id", first)
		h.Cover(w, r)
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

// Cover handles GET /api/blog/{id}/cover.
func (h *BlogHandler) Cover(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.Blog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get blog post", err)
		return
	}
	if !publicPost(r, b) || b.CoverImage == "" {
		notFound(w, "image")
		return
	}
	serveImage(w, r, b.CoverImage)
}

// Create handles POST /api/blog.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.Validate(schema.BlogPost, body); err != nil {
		badInput(w, err)
		return
	}

	var b model.BlogPost
	if err := json.Unmarshal(body, &b); err != nil {
		badInput(w, err)
		return
	}
	if err := normalizeOne("", &b.CoverImage); err != nil {
		h.writeDocError(w, r, "failed to create blog post", err)
		return
	}

	created, err := h.Store.Blog.Create(r.Context(), b)
	if err != nil {
		h.writeDocError(w, r, "failed to create blog post", err)
		return
	}

	slog.Info("blog post created", "user", GetClaims(r.Context()).Email, "post", created.ID)
	jsonResponse(w, http.StatusCreated, created)
}

// Update handles PUT /api/blog/{id}.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidatePatch(schema.BlogPost, body); err != nil {
		badInput(w, err)
		return
	}

	updated, err := h.Store.Blog.Update(r.Context(), r.PathValue("id"), func(next *model.BlogPost) error {
		before := next.CoverImage
		if err := json.Unmarshal(body, next); err != nil {
			return &applyError{err}
		}
		return normalizeOne(before, &next.CoverImage)
	})
	if err != nil {
		h.writeDocError(w, r, "failed to update blog post", err)
		return
	}
	if updated == nil {
		notFound(w, "blog post")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/blog/{id}.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.Blog.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to delete blog post", err)
		return
	}
	if !ok {
		notFound(w, "blog post")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "blog post deleted"})
}
