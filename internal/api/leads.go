package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/schema"
	"github.com/erazemk/estatedesk/internal/store"
)

// LeadsHandler handles contact form submissions and their management.
type LeadsHandler struct {
	responder
	Store *store.Store
}

// Create handles POST /api/leads. It is public.
func (h *LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.Validate(schema.Lead, body); err != nil {
		badInput(w, err)
		return
	}

	var l model.Lead
	if err := json.Unmarshal(body, &l); err != nil {
		badInput(w, err)
		return
	}

	created, err := h.Store.Leads.Create(r.Context(), l)
	if err != nil {
		h.writeError(w, r, "failed to save enquiry", err)
		return
	}

	slog.Info("lead received", "lead", created.ID, "source", created.Source, "property", created.PropertyID)
	jsonResponse(w, http.StatusCreated, created)
}

// List handles GET /api/leads.
func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.Leads.List(r.Context(), store.LeadQuery{
		Status: r.URL.Query().Get("status"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		h.serverError(w, r, "failed to list leads", err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// Export handles GET /api/leads/export as CSV.
func (h *LeadsHandler) Export(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Store.Leads.All(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.serverError(w, r, "failed to export leads", err)
		return
	}

	data, err := gocsv.MarshalBytes(&leads)
	if err != nil {
		h.serverError(w, r, "failed to encode leads", err)
		return
	}

	name := "leads-" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Get handles GET /api/leads/{id}.
func (h *LeadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.Store.Leads.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to get lead", err)
		return
	}
	if l == nil {
		notFound(w, "lead")
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// Update handles PUT /api/leads/{id}.
func (h *LeadsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidatePatch(schema.Lead, body); err != nil {
		badInput(w, err)
		return
	}

	updated, err := h.Store.Leads.Update(r.Context(), r.PathValue("id"), func(next *model.Lead) error {
		if err := json.Unmarshal(body, next); err != nil {
			return &applyError{err}
		}
		return nil
	})
	if err != nil {
		h.writeDocError(w, r, "failed to update lead", err)
		return
	}
	if updated == nil {
		notFound(w, "lead")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/leads/{id}.
func (h *LeadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.Leads.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serverError(w, r, "failed to delete lead", err)
		return
	}
	if !ok {
		notFound(w, "lead")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "lead deleted"})
}
