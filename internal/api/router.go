package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/micro-nova/powctl-go/internal/auth"
)

// NewRouter creates and returns the main HTTP router. Reads are open;
// anything that touches the charger goes through authSvc.
func NewRouter(ctrl Controller, authSvc *auth.Service, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus}

	r.Get("/api/charger", h.getCharger)
	r.Get("/api/devices", h.getDevices)
	r.Get("/api/subscribe", h.sseEvents)

	r.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)

		r.Patch("/api/charger", h.setCharger)
		r.Post("/api/charger/watchdog/reset", h.resetWatchdog)
		r.Put("/api/charger/interrupt", h.setInterrupt)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
