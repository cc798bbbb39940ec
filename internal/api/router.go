package api

import (
	"net/http"

	"github.com/erazemk/estatedesk/internal/auth"
	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/notify"
	"github.com/erazemk/estatedesk/internal/store"
)

// Options configures the API router.
type Options struct {
	Store  *store.Store
	Issuer *auth.Issuer
	Hub    *notify.Hub

	// Production hides internal error detail from responses.
	Production  bool
	CORSOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()
	rs := responder{production: opts.Production}
	st := opts.Store

	authHandler := &AuthHandler{responder: rs, Store: st, Issuer: opts.Issuer}
	usersHandler := &UsersHandler{responder: rs, Store: st}
	propertiesHandler := &PropertiesHandler{responder: rs, Store: st}
	blogHandler := &BlogHandler{responder: rs, Store: st}
	teamHandler := &TeamHandler{responder: rs, Store: st}
	leadsHandler := &LeadsHandler{responder: rs, Store: st}
	heroHandler := &HeroHandler{responder: rs, Store: st}
	settingsHandler := &SettingsHandler{responder: rs, Store: st}
	eventsHandler := &EventsHandler{Hub: opts.Hub}
	healthHandler := &HealthHandler{Store: st}

	authMW := AuthMiddleware(opts.Issuer, st.Tokens)
	optional := OptionalAuth(opts.Issuer, st.Tokens)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireEditor := RequireRole(model.RoleEditor)

	// protected wraps write endpoints.
	protected := func(h http.HandlerFunc) http.Handler {
		return authMW(requireEditor(h))
	}
	public := func(h http.HandlerFunc) http.Handler {
		return optional(h)
	}

	mux.HandleFunc("GET /api/health", healthHandler.Check)

	// Auth.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/register", public(authHandler.Register))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Properties.
	mux.Handle("GET /api/properties", public(propertiesHandler.List))
	mux.Handle("GET /api/properties/featured", public(propertiesHandler.Featured))
	mux.Handle("GET /api/properties/slug/{slug}", public(propertiesHandler.GetBySlug))
	mux.Handle("GET /api/properties/{id}", public(propertiesHandler.Get))
	mux.Handle("GET /api/properties/{id}/images/{index}", public(propertiesHandler.Image))
	mux.Handle("POST /api/properties", protected(propertiesHandler.Create))
	mux.Handle("PUT /api/properties/{id}", protected(propertiesHandler.Update))
	mux.Handle("DELETE /api/properties/{id}", protected(propertiesHandler.Delete))

	// Blog.
	mux.Handle("GET /api/blog", public(blogHandler.List))
	mux.Handle("GET /api/blog/{id}", public(blogHandler.Get))
	// slug/{slug} and {id}/cover overlap as mux patterns.
	mux.Handle("GET /api/blog/{first}/{second}", public(blogHandler.Nested))
	mux.Handle("POST /api/blog", protected(blogHandler.Create))
	mux.Handle("PUT /api/blog/{id}", protected(blogHandler.Update))
	mux.Handle("DELETE /api/blog/{id}", protected(blogHandler.Delete))

	// Team.
	mux.HandleFunc("GET /api/team", teamHandler.List)
	mux.HandleFunc("GET /api/team/{id}", teamHandler.Get)
	mux.HandleFunc("GET /api/team/{id}/photo", teamHandler.Photo)
	mux.Handle("POST /api/team", protected(teamHandler.Create))
	mux.Handle("PUT /api/team/{id}", protected(teamHandler.Update))
	mux.Handle("DELETE /api/team/{id}", protected(teamHandler.Delete))

	// Leads: anyone may submit, only staff may read.
	mux.HandleFunc("POST /api/leads", leadsHandler.Create)
	mux.Handle("GET /api/leads", protected(leadsHandler.List))
	mux.Handle("GET /api/leads/export", protected(leadsHandler.Export))
	mux.Handle("GET /api/leads/{id}", protected(leadsHandler.Get))
	mux.Handle("PUT /api/leads/{id}", protected(leadsHandler.Update))
	mux.Handle("DELETE /api/leads/{id}", protected(leadsHandler.Delete))

	// Hero slides.
	mux.Handle("GET /api/hero-slides", public(heroHandler.List))
	mux.Handle("GET /api/hero-slides/{id}", public(heroHandler.Get))
	mux.Handle("GET /api/hero-slides/{id}/image", public(heroHandler.Image))
	mux.Handle("POST /api/hero-slides", protected(heroHandler.Create))
	mux.Handle("PUT /api/hero-slides/{id}", protected(heroHandler.Update))
	mux.Handle("DELETE /api/hero-slides/{id}", protected(heroHandler.Delete))

	// Settings.
	mux.HandleFunc("GET /api/settings", settingsHandler.Get)
	mux.Handle("PUT /api/settings", protected(settingsHandler.Put))

	// Live updates.
	mux.Handle("GET /api/events", public(eventsHandler.Stream))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})

	return RecoverMiddleware(LoggingMiddleware(CORSMiddleware(opts.CORSOrigins)(mux)))
}
